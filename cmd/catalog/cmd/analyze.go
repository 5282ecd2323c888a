package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/index"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
)

type analyzeFlags struct {
	topDirs    int
	topFiles   int
	jsonOutput bool
	browse     bool
	noRefresh  bool
	noHidden   bool
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Report disk usage from the catalog",
		Long: `Report total bytes per root, the largest directories and the largest
files, optionally limited to path.

Roots last indexed more than a day ago are reindexed first unless
--no-refresh is given. Directory totals are cached in the snapshot and
reused until the next index run.

--browse opens an interactive view to drill into directories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.topDirs < 0 || f.topFiles < 0 {
				return cerrors.UserInputError("--top-dirs and --top-files must not be negative", nil)
			}
			scope := ""
			if len(args) > 0 {
				p, err := config.NormalizePathAllowMissing(args[0])
				if err != nil {
					return cerrors.New(cerrors.ErrCodeInvalidPath, err.Error(), err)
				}
				scope = p
			}
			return runAnalyze(cmd, flags, f, scope)
		},
	}

	cmd.Flags().IntVar(&f.topDirs, "top-dirs", 0, "Number of largest directories (default from config)")
	cmd.Flags().IntVar(&f.topFiles, "top-files", 0, "Number of largest files (default from config)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&f.browse, "browse", false, "Browse directory sizes interactively")
	cmd.Flags().BoolVar(&f.noRefresh, "no-refresh", false, "Do not reindex stale roots first")
	cmd.Flags().BoolVar(&f.noHidden, "no-hidden-space", false, "Skip the filesystem usage comparison")
	return cmd
}

func runAnalyze(cmd *cobra.Command, flags *globalFlags, f *analyzeFlags, scope string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp(flags)
	if err != nil {
		return err
	}

	analyzer := analyze.New(a.refresher())
	opts := analyze.Options{
		Scope:       scope,
		TopDirs:     pick(f.topDirs, a.cfg.Analyze.TopDirs),
		TopFiles:    pick(f.topFiles, a.cfg.Analyze.TopFiles),
		StaleAfter:  a.cfg.Analyze.StaleAfter,
		NoRefresh:   f.noRefresh,
		HiddenSpace: a.cfg.Analyze.HiddenSpace && !f.noHidden && !f.browse,
	}
	report, err := analyzer.Run(ctx, a.st, opts)
	if err != nil {
		return err
	}
	if err := persistRollup(a.st, report.RollupCached); err != nil {
		return err
	}

	if f.browse {
		idx, err := analyzer.Browse(ctx, a.st)
		if err != nil {
			return err
		}
		return ui.Browse(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), scope, browseLister(idx),
			flags.noColor || ui.DetectNoColor())
	}

	out := output.New(cmd.OutOrStdout())
	if a.wantJSON(f.jsonOutput) {
		return out.JSON(report)
	}
	out.Report(report)
	return nil
}

// refresher reindexes stale roots with the configured options and no
// progress display.
func (a *app) refresher() analyze.Refresher {
	return analyze.RefreshFunc(func(ctx context.Context, st *store.Store, ids []uint64) (*index.Summary, error) {
		opts := a.indexOptions()
		opts.RootIDs = ids
		return index.New(ui.NopRenderer{}).Run(ctx, st, opts)
	})
}

// persistRollup saves the snapshot when analyze rebuilt the directory
// totals for a committed run, so the next report can reuse them.
func persistRollup(st *store.Store, cached bool) error {
	if cached || st.LastRunID() == 0 || !st.DirSizesFresh() {
		return nil
	}
	slog.Debug("saving rebuilt rollup", slog.Uint64("run_id", st.LastRunID()))
	return st.Save()
}

func browseLister(idx *analyze.BrowseIndex) ui.ChildLister {
	return func(path string) ([]ui.Node, error) {
		kids := idx.Children(path)
		nodes := make([]ui.Node, len(kids))
		for i, c := range kids {
			nodes[i] = ui.Node{Path: c.Path, Size: c.Size, IsDir: c.IsDir}
		}
		return nodes, nil
	}
}

func pick(flag, def int) int {
	if flag > 0 {
		return flag
	}
	return def
}
