package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/downloads"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var consumer string

	cmd := &cobra.Command{
		Use:   "import PATH",
		Short: "Queue a local directory for import by the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cannot import %s: %w", path, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("cannot import %s: not a directory", path)
			}
			store, err := ctx.downloadStore()
			if err != nil {
				return err
			}
			item := &downloads.Download{
				Consumer:  strings.TrimSpace(consumer),
				Source:    "local",
				SourceURL: path,
				Status:    downloads.StatusPending,
			}
			if item.Consumer == "" {
				item.Consumer = "default"
			}
			if err := store.Create(cmd.Context(), item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued import #%d for %s\n", item.ID, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&consumer, "consumer", "", "Consumer to attribute the import to")
	return cmd
}
