package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/index"
	"github.com/Aman-CERP/catalog/internal/roots"
	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
)

// app is the loaded state most commands work on.
type app struct {
	cfgPath string
	cfg     *config.Config
	st      *store.Store
	synced  roots.SyncResult
}

func (f *globalFlags) resolvedConfigPath() string {
	if f.configPath != "" {
		return config.ExpandTilde(f.configPath)
	}
	return config.ConfigPath()
}

// loadConfig reads the config file, which must exist.
func loadConfig(flags *globalFlags) (string, *config.Config, error) {
	path := flags.resolvedConfigPath()
	if !config.Exists(path) {
		return "", nil, cerrors.New(cerrors.ErrCodeConfigNotFound, "config not found at "+path, nil).
			WithSuggestion("Run `catalog init` first")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

// resolvedStorePath is --store when given, else the config's store path.
func (f *globalFlags) resolvedStorePath(cfg *config.Config) string {
	if f.storePath != "" {
		return config.ExpandTilde(f.storePath)
	}
	return cfg.ResolvedStorePath()
}

// openApp loads the config and the snapshot, and brings the snapshot's
// roots in line with the config in memory. Callers that mutate decide
// whether to save.
func openApp(flags *globalFlags) (*app, error) {
	path, cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(flags.resolvedStorePath(cfg))
	if err != nil {
		return nil, err
	}
	synced, err := roots.Sync(st, cfg, "")
	if err != nil {
		return nil, err
	}
	return &app{cfgPath: path, cfg: cfg, st: st, synced: synced}, nil
}

// saveIfSynced persists root changes picked up from the config.
func (a *app) saveIfSynced() error {
	if !a.synced.Changed() {
		return nil
	}
	return a.st.Save()
}

// indexOptions maps the config onto indexer options.
func (a *app) indexOptions() index.Options {
	return index.Options{
		Excludes:      a.cfg.Excludes,
		IncludeHidden: a.cfg.IncludeHidden,
		Workers:       a.cfg.Index.Workers,
		ErrorExamples: a.cfg.Index.ErrorExamples,
		Home:          config.HomeDir(),
	}
}

// renderer picks the progress display for a command writing to out.
func renderer(cmd *cobra.Command, flags *globalFlags, plain bool) ui.Renderer {
	return ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(plain || flags.debug),
		ui.WithNoColor(flags.noColor || ui.DetectNoColor()),
	))
}

// runIndex drives one indexer run with a progress renderer.
func runIndex(ctx context.Context, st *store.Store, r ui.Renderer, opts index.Options) (*index.Summary, error) {
	if err := r.Start(ctx); err != nil {
		slog.Debug("renderer start failed", slog.String("error", err.Error()))
	}
	summary, err := index.New(r).Run(ctx, st, opts)
	if stopErr := r.Stop(); stopErr != nil {
		slog.Debug("renderer stop failed", slog.String("error", stopErr.Error()))
	}
	return summary, err
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// wantJSON reports whether output should be JSON for this invocation.
func (a *app) wantJSON(flag bool) bool {
	return flag || a.cfg.Output == config.OutputJSON
}
