package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/review"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work the manual review queue",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewRejectCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items, pending ones by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.reviewStore()
			if err != nil {
				return err
			}
			statuses := []review.Status{review.StatusPending}
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				if trimmed == "all" {
					statuses = nil
				} else {
					statuses = statuses[:0]
					for _, raw := range strings.Split(trimmed, ",") {
						status, ok := review.ParseStatus(raw)
						if !ok {
							return fmt.Errorf("unknown review status %q", raw)
						}
						statuses = append(statuses, status)
					}
				}
			}
			items, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No review items")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.SuggestedArtist,
					item.SuggestedAlbum,
					fmt.Sprintf("%.2f", item.Confidence),
					strconv.Itoa(item.TrackCount),
					item.Reason,
					string(item.Status),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Artist", "Album", "Confidence", "Tracks", "Reason", "Status"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Status filter (comma-separated, or \"all\")")
	return cmd
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	var artist, album string

	cmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a review item, optionally with corrected metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			queue, err := ctx.reviewQueue()
			if err != nil {
				return err
			}
			correction := review.Correction{
				Artist: strings.TrimSpace(artist),
				Album:  strings.TrimSpace(album),
			}
			if err := queue.Approve(cmd.Context(), id, correction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review item #%d approved and imported\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "Corrected artist name")
	cmd.Flags().StringVar(&album, "album", "", "Corrected album title")
	return cmd
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	var keepFiles bool

	cmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a review item and discard its staged files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			queue, err := ctx.reviewQueue()
			if err != nil {
				return err
			}
			if err := queue.Reject(cmd.Context(), id, !keepFiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review item #%d rejected\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Leave the staged files on disk")
	return cmd
}
