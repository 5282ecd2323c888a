// Package cmd provides the CLI commands for catalog.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/logging"
	"github.com/Aman-CERP/catalog/internal/profiling"
	"github.com/Aman-CERP/catalog/pkg/version"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	storePath  string
	debug      bool
	noColor    bool
	profileCPU string
	profileMem string
}

// runState holds what the pre-run hook started so the post-run hook can
// stop it.
type runState struct {
	profiler       *profiling.Profiler
	loggingCleanup func()
}

// NewRootCmd creates the root command for the catalog CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *runState) {
	flags := &globalFlags{}
	state := &runState{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Local filesystem metadata catalog",
		Long: `catalog indexes file metadata under a set of root directories into a
single snapshot file, then answers path searches, recent-change queries
and disk-usage reports from it without touching the disk again.

Start with 'catalog init', then 'catalog index'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("catalog version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default $CATALOG_CONFIG or ~/.config/catalog/config.yaml)")
	pf.StringVar(&flags.storePath, "store", "", "Snapshot file (overrides store_path in config)")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging to stderr and the log file")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&flags.profileCPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&flags.profileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		return state.start(c, flags)
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		return state.stop()
	}

	cmd.AddCommand(newInitCmd(flags))
	cmd.AddCommand(newRootsCmd(flags))
	cmd.AddCommand(newAddCmd(flags))
	cmd.AddCommand(newRmCmd(flags))
	cmd.AddCommand(newIndexCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newRecentCmd(flags))
	cmd.AddCommand(newAnalyzeCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newExportCmd(flags))
	cmd.AddCommand(newImportCmd(flags))
	cmd.AddCommand(newPruneCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd, state
}

// start sets up logging and profiling. serve logs to the file only since
// stdout carries the protocol.
func (s *runState) start(c *cobra.Command, flags *globalFlags) error {
	level := configuredLogLevel(flags)
	logCfg := logging.DefaultConfig()
	switch {
	case c.Name() == "serve":
		if level == "" {
			level = "info"
		}
		logCfg = logging.ServerConfig(level)
		if flags.debug {
			logCfg.Level = "debug"
		}
	case flags.debug:
		logCfg = logging.DebugConfig()
	case level != "":
		logCfg.Level = level
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// A read-only home should not stop the command.
		fmt.Fprintf(c.ErrOrStderr(), "warning: file logging disabled: %v\n", err)
		logCfg.FilePath = ""
		if cleanup, err = logging.SetupDefault(logCfg); err != nil {
			return err
		}
	}
	s.loggingCleanup = cleanup

	opts := profiling.Options{CPU: flags.profileCPU, Mem: flags.profileMem}
	if opts.Enabled() {
		p, err := profiling.Start(opts)
		if err != nil {
			return err
		}
		s.profiler = p
	}
	slog.Debug("command started", slog.String("command", c.CommandPath()), slog.String("version", version.Version))
	return nil
}

// configuredLogLevel is log_level from the config file, if it can be read.
// Commands report a missing or broken config themselves.
func configuredLogLevel(flags *globalFlags) string {
	path := flags.resolvedConfigPath()
	if !config.Exists(path) {
		return ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return ""
	}
	return cfg.LogLevel
}

func (s *runState) stop() error {
	var err error
	if s.profiler != nil {
		err = s.profiler.Stop()
		s.profiler = nil
	}
	if s.loggingCleanup != nil {
		s.loggingCleanup()
		s.loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints any error with its hint.
// Cobra skips post-run hooks on failure, so logging and profiling are
// stopped here as well.
func Execute() error {
	root, state := newRootCmd()
	err := root.Execute()
	if err != nil {
		slog.Error("command failed", cerrors.LogAttrs(err)...)
		fmt.Fprint(os.Stderr, cerrors.FormatForCLI(err))
	}
	if stopErr := state.stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
