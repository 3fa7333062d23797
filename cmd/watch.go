package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"modsync.dev/pkg/modsync/internal/adapter"
	"modsync.dev/pkg/modsync/internal/domain"
)

const defaultWatchDebounce = 500 * time.Millisecond

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the catalog again whenever the library or live directory changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			workflow, engine, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			watcher, err := adapter.NewDirWatcher(debounce, "_*", domain.CountCacheFileName+"*", "*.tmp")
			if err != nil {
				return err
			}

			defer func() { _ = watcher.Close() }()

			cfg := engine.Config()
			if err := watcher.Add(cfg.LibraryPath); err != nil {
				return err
			}

			if err := watcher.Add(cfg.LivePath); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := workflow.List(ctx); err != nil {
				return err
			}

			return watcher.Run(ctx, func() {
				if err := workflow.List(ctx); err != nil {
					slog.Error("Failed to refresh catalog", "error", err)
				}
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, debounceFlagName, defaultWatchDebounce, "quiet period before the catalog is printed again")

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
