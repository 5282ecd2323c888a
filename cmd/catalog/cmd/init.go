package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/roots"
	"github.com/Aman-CERP/catalog/internal/store"
)

func newInitCmd(flags *globalFlags) *cobra.Command {
	var presetName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config and an empty catalog",
		Long: `Create the config file and the snapshot.

A new config gets the platform's default preset. --preset replaces the
configured roots with the preset's directories that exist on this machine
and resets excludes to the defaults.

Presets: ` + strings.Join(config.Presets(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var preset config.Preset
			if presetName != "" {
				p, err := config.ParsePreset(presetName)
				if err != nil {
					return cerrors.UserInputError(err.Error(), nil)
				}
				preset = p
			}
			return runInit(cmd, flags, preset)
		},
	}

	cmd.Flags().StringVar(&presetName, "preset", "", "Root preset to apply ("+strings.Join(config.Presets(), ", ")+")")
	return cmd
}

func runInit(cmd *cobra.Command, flags *globalFlags, preset config.Preset) error {
	path := flags.resolvedConfigPath()
	if preset == "" && !config.Exists(path) {
		preset = config.DefaultPreset()
	}

	cfg, err := config.Init(path, preset)
	if err != nil {
		return err
	}
	st, err := store.Open(flags.resolvedStorePath(cfg))
	if err != nil {
		return err
	}
	res, err := roots.Sync(st, cfg, string(preset))
	if err != nil {
		return err
	}
	if err := st.Save(); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Initialized catalog with %d root(s)", len(cfg.Roots))
	out.Statusf("", "config: %s", path)
	out.Statusf("", "store:  %s", st.Path())
	if len(res.Removed) > 0 {
		out.Statusf("", "dropped %d root(s) no longer configured", len(res.Removed))
	}
	if preset != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   preset: %s\n", preset)
	}
	return nil
}
