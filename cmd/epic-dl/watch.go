package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/handiism/epic-downloader/internal/api/http"
	"github.com/handiism/epic-downloader/internal/download"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/scheduler"
	"github.com/handiism/epic-downloader/internal/store"
)

func newWatchCmd(opts *options) *cobra.Command {
	var (
		interval time.Duration
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "watch <target-folder>",
		Short: "Periodically download the latest EPIC date",
		Long: `watch downloads the most recent available date into <target-folder> and
repeats on an interval until interrupted. With --addr, run history is served
as JSON over HTTP.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, apiKey, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				settings.Watch.Interval = interval
			}
			if cmd.Flags().Changed("addr") {
				settings.Watch.StatusAddr = addr
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			manager := download.NewManager(settings, apiKey, printer(opts.verbose, false))
			runs := store.NewMemoryStore(settings.Watch.History)

			// A run never outlives its slot.
			sched := scheduler.New(manager, runs, args[0], settings.Watch.Interval, settings.Watch.Interval)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			serveErr := make(chan error, 1)
			if settings.Watch.StatusAddr != "" {
				app := httpapi.NewApp()
				httpapi.RegisterRoutes(app, runs)

				go func() {
					logger.Info("Status server listening", logger.Fields{"addr": settings.Watch.StatusAddr})
					serveErr <- app.Listen(settings.Watch.StatusAddr)
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := app.ShutdownWithContext(shutdownCtx); err != nil {
						logger.Warn("Status server shutdown failed", logger.Fields{"error": err.Error()})
					}
				}()
			}

			select {
			case <-ctx.Done():
				logger.Info("Stopping watch", logger.Fields{"runs": runs.Len()})
				return nil
			case err := <-serveErr:
				return fmt.Errorf("status server stopped: %w", err)
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "time between runs (default from config, 6h)")
	cmd.Flags().StringVar(&addr, "addr", "", "serve run history on this address, e.g. :8080")

	return cmd
}
