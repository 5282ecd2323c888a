package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/store"
)

func newImportCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the snapshot with a JSON export",
		Long: `Rebuild the snapshot from the output of 'catalog export --format json'.
Use "-" to read from stdin.

Roots in the export that are not in the config are dropped by the next
command that syncs roots.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			path := flags.resolvedStorePath(cfg)
			if _, err := os.Stat(path); err == nil && !force {
				return cerrors.UserInputError("snapshot already exists at "+path, nil).
					WithSuggestion("Pass --force to replace it")
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return cerrors.New(cerrors.ErrCodeInvalidPath, "cannot open "+args[0], err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			st, err := store.ReadJSON(r, path)
			if err != nil {
				return err
			}
			if err := st.Save(); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Imported %d entries into %s", st.FileCount(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing snapshot")
	return cmd
}
