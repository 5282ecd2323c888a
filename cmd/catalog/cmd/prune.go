package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/store"
)

func newPruneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete the catalog snapshot",
		Long: `Delete the snapshot and any temp files left by an interrupted save. The
config is kept; the next 'catalog index' starts from an empty catalog.

Entries of removed roots do not need pruning: they are dropped whenever
roots are synced with the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			path := flags.resolvedStorePath(cfg)
			removed, err := store.Remove(path)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if len(removed) == 0 {
				out.Statusf("", "nothing to prune at %s", path)
				return nil
			}
			out.Successf("Removed %d file(s)", len(removed))
			for _, p := range removed {
				out.Statusf("", "%s", p)
			}
			return nil
		},
	}
}
