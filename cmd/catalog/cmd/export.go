package cmd

import (
	"os"

	"github.com/google/renameio"
	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as JSON or SQLite",
		Long: `Write the whole catalog in a portable format.

  --format json     roots, entries and counters as one JSON document
                    (stdout unless -o is given)
  --format sqlite   a SQLite database with roots, files and dir_sizes
                    tables (requires -o)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				if out == "" {
					return a.st.WriteJSON(cmd.OutOrStdout())
				}
				pf, err := renameio.TempFile("", out)
				if err != nil {
					return cerrors.New(cerrors.ErrCodeExport, "cannot create "+out, err)
				}
				defer func() { _ = pf.Cleanup() }()
				if err := a.st.WriteJSON(pf); err != nil {
					return err
				}
				if err := pf.CloseAtomicallyReplace(); err != nil {
					return cerrors.New(cerrors.ErrCodeExport, "cannot write "+out, err)
				}
			case "sqlite":
				if out == "" {
					return cerrors.UserInputError("--format sqlite needs -o <file>", nil)
				}
				if err := a.st.ExportSQLite(cmd.Context(), out); err != nil {
					return err
				}
			default:
				return cerrors.UserInputError("--format must be json or sqlite, got "+format, nil)
			}

			if fi, err := os.Stat(out); err == nil {
				output.New(cmd.ErrOrStderr()).Successf("Exported %d entries to %s (%d bytes)", a.st.FileCount(), out, fi.Size())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or sqlite")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file")
	return cmd
}
