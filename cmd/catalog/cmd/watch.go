package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/roots"
	"github.com/Aman-CERP/catalog/internal/ui"
	"github.com/Aman-CERP/catalog/internal/watch"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var (
		interval time.Duration
		noNotify bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the catalog current by reindexing periodically",
		Long: `Index now, then again every interval until interrupted. Changes directly
inside a root directory trigger an earlier run after a short quiet period.

The config is re-read before every run, so roots added or removed in the
meantime are picked up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				if interval < time.Second {
					return cerrors.UserInputError("--interval must be at least 1s", nil)
				}
				a.cfg.Watch.Interval = interval
			}

			paths := make([]string, 0, len(a.st.Roots()))
			for _, r := range a.st.Roots() {
				paths = append(paths, r.Path)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("👀", "Watching %d root(s), full run every %s", len(paths), a.cfg.Watch.Interval)

			loop := watch.New(func(ctx context.Context, trigger watch.Trigger) error {
				return a.watchRun(ctx, cmd, flags, trigger)
			}, watch.Options{
				Interval: a.cfg.Watch.Interval,
				Debounce: a.cfg.Watch.Debounce,
				Notify:   a.cfg.Watch.Notify && !noNotify,
				Roots:    paths,
			})
			return loop.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between runs (default from config)")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Only run on the interval, ignore filesystem events")
	return cmd
}

// watchRun re-reads the config, syncs roots and runs the indexer.
func (a *app) watchRun(ctx context.Context, cmd *cobra.Command, flags *globalFlags, trigger watch.Trigger) error {
	if _, cfg, err := loadConfig(flags); err == nil {
		a.cfg = cfg
		if _, err := roots.Sync(a.st, cfg, ""); err != nil {
			return err
		}
	} else {
		slog.Warn("config reload failed, keeping previous config", slog.String("error", err.Error()))
	}

	slog.Info("watch run", slog.String("trigger", trigger.String()))
	opts := a.indexOptions()
	if _, err := preflightCheck(ctx, a.st.Path(), opts.Workers); err != nil {
		return err
	}
	r := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(true),
		ui.WithNoColor(flags.noColor || ui.DetectNoColor()),
	))
	_, err := runIndex(ctx, a.st, r, opts)
	return err
}
