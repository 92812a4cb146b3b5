package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/library"
)

func newHeartCommand(ctx *commandContext) *cobra.Command {
	return newHeartingCommand(ctx, "heart", "Add an album, track, or artist to a consumer library")
}

func newUnheartCommand(ctx *commandContext) *cobra.Command {
	return newHeartingCommand(ctx, "unheart", "Remove an album, track, or artist from a consumer library")
}

func newHeartingCommand(ctx *commandContext, verb, short string) *cobra.Command {
	var consumer string

	cmd := &cobra.Command{
		Use:   verb + " {album|track|artist} ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(strings.TrimSpace(args[0]))
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if strings.TrimSpace(consumer) == "" {
				return fmt.Errorf("--consumer is required")
			}
			mat, err := ctx.materializer()
			if err != nil {
				return err
			}
			hearting := verb == "heart"
			switch kind {
			case "album":
				op := mat.UnheartAlbum
				if hearting {
					op = mat.HeartAlbum
				}
				if err := op(cmd.Context(), consumer, id); err != nil {
					return err
				}
			case "track":
				op := mat.UnheartTrack
				if hearting {
					op = mat.HeartTrack
				}
				if err := op(cmd.Context(), consumer, id); err != nil {
					return err
				}
			case "artist":
				op := mat.UnheartArtist
				if hearting {
					op = mat.HeartArtist
				}
				results, err := op(cmd.Context(), consumer, id)
				if err != nil {
					return err
				}
				reportArtistResults(cmd.OutOrStdout(), results)
			default:
				return fmt.Errorf("unknown target %q, expected album, track, or artist", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sed %s #%d for %s\n", verb, kind, id, consumer)
			return nil
		},
	}

	cmd.Flags().StringVar(&consumer, "consumer", "", "Consumer library to modify")
	return cmd
}

func reportArtistResults(out io.Writer, results []library.AlbumResult) {
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(out, "  album #%d (%s): %v\n", result.AlbumID, result.Title, result.Err)
		}
	}
}

func newRepairLinksCommand(ctx *commandContext) *cobra.Command {
	var consumer string

	cmd := &cobra.Command{
		Use:   "repair-links",
		Short: "Regenerate consumer library links from stored memberships",
		RunE: func(cmd *cobra.Command, args []string) error {
			mat, err := ctx.materializer()
			if err != nil {
				return err
			}
			var repair func(context.Context) error
			if trimmed := strings.TrimSpace(consumer); trimmed != "" {
				repair = func(runCtx context.Context) error {
					return mat.Repair(runCtx, trimmed)
				}
			} else {
				repair = mat.RepairAll
			}
			if err := repair(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Library links repaired")
			return nil
		},
	}

	cmd.Flags().StringVar(&consumer, "consumer", "", "Limit repair to one consumer library")
	return cmd
}
