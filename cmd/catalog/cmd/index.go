package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/preflight"
	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
)

type indexFlags struct {
	full             bool
	oneFilesystem    bool
	crossFilesystems bool
	roots            []string
	plain            bool
	jsonOutput       bool
}

func newIndexCmd(flags *globalFlags) *cobra.Command {
	f := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the configured roots and update the catalog",
		Long: `Walk every configured root, record the metadata of each file and
directory, and mark entries that were not seen as deleted.

Every run rescans the whole tree. --full also drops the cached directory
totals so the next analyze recomputes them.

Press Ctrl+C to abort; an aborted run leaves the saved snapshot untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.oneFilesystem && f.crossFilesystems {
				return cerrors.UserInputError("--one-filesystem and --cross-filesystems are mutually exclusive", nil)
			}
			return runIndexCmd(cmd, flags, f)
		},
	}

	cmd.Flags().BoolVar(&f.full, "full", false, "Also discard cached directory totals")
	cmd.Flags().BoolVar(&f.oneFilesystem, "one-filesystem", false, "Stay on each root's filesystem for this run")
	cmd.Flags().BoolVar(&f.crossFilesystems, "cross-filesystems", false, "Descend into other filesystems for this run")
	cmd.Flags().StringSliceVar(&f.roots, "root", nil, "Only index this root (repeatable)")
	cmd.Flags().BoolVar(&f.plain, "no-tui", false, "Plain progress output")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func runIndexCmd(cmd *cobra.Command, flags *globalFlags, f *indexFlags) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp(flags)
	if err != nil {
		return err
	}

	opts := a.indexOptions()
	switch {
	case f.oneFilesystem:
		v := true
		opts.OneFilesystem = &v
	case f.crossFilesystems:
		v := false
		opts.OneFilesystem = &v
	}
	if opts.RootIDs, err = rootIDs(a.st, f.roots); err != nil {
		return err
	}
	if f.full {
		a.st.InvalidateDirSizes()
	}

	jsonOut := a.wantJSON(f.jsonOutput)
	out := output.New(cmd.OutOrStdout())
	warnings, err := preflightCheck(ctx, a.st.Path(), opts.Workers)
	if err != nil {
		return err
	}
	if !jsonOut {
		for _, w := range warnings {
			out.Warning(w)
		}
	}

	var r ui.Renderer = ui.NopRenderer{}
	if !jsonOut {
		r = renderer(cmd, flags, f.plain)
	}

	summary, err := runIndex(ctx, a.st, r, opts)
	if err != nil {
		return err
	}

	if jsonOut {
		return out.JSON(summary)
	}
	for _, rs := range summary.Roots {
		if rs.Missing {
			out.Warningf("%s is missing; its entries were left as they were", rs.Path)
		} else if rs.Error != "" {
			out.Warningf("%s: %s", rs.Path, rs.Error)
		}
	}
	for _, g := range summary.Errors {
		out.Warningf("%s: %d %s error(s), e.g. %s", g.Root, g.Count, g.Class, firstOr(g.Examples, "-"))
	}
	return nil
}

// preflightCheck refuses a run that could not save its snapshot and
// returns the non-fatal findings.
func preflightCheck(ctx context.Context, storePath string, workers int) ([]string, error) {
	checker := preflight.New(preflight.WithWorkers(workers))
	results := checker.RunAll(ctx, storePath)
	problems := preflight.Problems(results)
	for _, p := range problems {
		slog.Warn("preflight", slog.String("result", p))
	}
	if checker.HasCriticalFailures(results) {
		return nil, cerrors.StoreIOError("cannot index: "+strings.Join(problems, "; "), nil).
			WithDetail("store", storePath)
	}
	return problems, nil
}

// rootIDs maps --root paths to store root ids.
func rootIDs(st *store.Store, paths []string) ([]uint64, error) {
	var ids []uint64
	for _, p := range paths {
		normalized, err := config.NormalizePathAllowMissing(p)
		if err != nil {
			return nil, cerrors.UserInputError(err.Error(), err)
		}
		r, ok := st.RootByPath(normalized)
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeUnknownRoot, "not a configured root: "+p, nil).
				WithSuggestion("Add it with `catalog add " + p + "`")
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}
