package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/roots"
)

func newRootsCmd(flags *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "roots",
		Short: "Show configured roots and excludes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			info := roots.Status(a.st, a.st.Path())
			out := output.New(cmd.OutOrStdout())
			if a.wantJSON(jsonOutput) {
				return out.JSON(map[string]any{
					"roots":          info.Roots,
					"excludes":       a.cfg.Excludes,
					"include_hidden": a.cfg.IncludeHidden,
					"one_filesystem": a.cfg.OneFilesystem,
				})
			}

			rows := make([][]string, 0, len(info.Roots))
			for _, r := range info.Roots {
				indexed := "never indexed"
				if r.LastIndexed != nil {
					indexed = humanize.Time(*r.LastIndexed)
				}
				if r.Missing {
					indexed += " (missing)"
				}
				rows = append(rows, []string{strconv.FormatUint(r.ID, 10), r.Path, humanize.Comma(int64(r.Active)), indexed})
			}
			out.Table([]string{"ID", "PATH", "ENTRIES", "LAST INDEXED"}, rows)

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "\nExcludes:")
			for _, ex := range a.cfg.Excludes {
				_, _ = fmt.Fprintf(w, "  %s\n", ex)
			}
			_, _ = fmt.Fprintf(w, "\ninclude_hidden: %t\none_filesystem: %t\n", a.cfg.IncludeHidden, a.cfg.OneFilesystem)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Add root directories",
		Long: `Add root directories to the config. Paths are made absolute with
symlinks resolved; paths that do not exist are skipped with a warning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			added := roots.Add(cfg, args)
			if err := cfg.Save(path); err != nil {
				return err
			}
			if err := syncAndSave(flags); err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			out.Successf("Added %d root(s)", added)
			if skipped := len(args) - added; skipped > 0 {
				out.Statusf("", "%d path(s) skipped (missing or already configured)", skipped)
			}
			return nil
		},
	}
}

func newRmCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove root directories and their entries",
		Long: `Remove root directories from the config. Every catalog entry under a
removed root is dropped from the snapshot.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			removed, err := roots.Remove(cfg, args)
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			if err := syncAndSave(flags); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Removed %d root(s)", removed)
			return nil
		},
	}
}

// syncAndSave reloads the saved config and persists the resulting roots.
func syncAndSave(flags *globalFlags) error {
	a, err := openApp(flags)
	if err != nil {
		return err
	}
	return a.saveIfSynced()
}
