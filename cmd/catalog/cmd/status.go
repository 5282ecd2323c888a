package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/roots"
	"github.com/Aman-CERP/catalog/internal/ui"
)

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog health",
		Long:  `Show the snapshot size, the last run, entry counts and per-root freshness.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			info := roots.Status(a.st, a.st.Path())
			r := ui.NewStatusRenderer(cmd.OutOrStdout(), flags.noColor || ui.DetectNoColor())
			if a.wantJSON(jsonOutput) {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}
