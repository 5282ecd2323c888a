package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/mcp"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog to MCP clients over stdio",
		Long: `Start a Model Context Protocol server exposing the search, recent,
analyze and index_status tools. The snapshot is read-only here and is
reloaded whenever an index run replaces it; run 'catalog watch' alongside
to keep it current.

Nothing but protocol messages is written to stdout; logs go to the log
file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			_, cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			srv, err := mcp.NewServer(mcp.NewSnapshot(flags.resolvedStorePath(cfg)), cfg)
			if err != nil {
				return err
			}
			return srv.Serve(ctx, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport (stdio)")
	return cmd
}
