package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/downloads"
	"cadence/internal/review"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue, review, and catalog counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			downloadStore, err := ctx.downloadStore()
			if err != nil {
				return err
			}
			reviewStore, err := ctx.reviewStore()
			if err != nil {
				return err
			}
			catalogStore, err := ctx.catalogStore()
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			queueCounts, err := downloadStore.CountByStatus(runCtx)
			if err != nil {
				return err
			}
			reviewCounts, err := reviewStore.CountByStatus(runCtx)
			if err != nil {
				return err
			}
			totals, err := catalogStore.Totals(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Library", cfg.Paths.LibraryDir},
				{"Consumers", cfg.Paths.ConsumersDir},
				{"Staging", cfg.Paths.StagingDir},
				{"Artists", strconv.Itoa(totals.Artists)},
				{"Albums", strconv.Itoa(totals.Albums)},
				{"Tracks", strconv.Itoa(totals.Tracks)},
			}
			for _, status := range []downloads.Status{
				downloads.StatusPending,
				downloads.StatusDownloading,
				downloads.StatusImporting,
				downloads.StatusComplete,
				downloads.StatusDuplicate,
				downloads.StatusPendingReview,
				downloads.StatusFailed,
			} {
				if count := queueCounts[status]; count > 0 {
					rows = append(rows, []string{"Queue " + string(status), strconv.Itoa(count)})
				}
			}
			if pending := reviewCounts[review.StatusPending]; pending > 0 {
				rows = append(rows, []string{"Reviews pending", strconv.Itoa(pending)})
			}

			fmt.Fprintln(out, renderTable(out,
				[]string{"Item", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
