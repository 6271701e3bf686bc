// Package main implements the tasker CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasker/internal/commands"
	"tasker/internal/config"
	"tasker/internal/logging"
	"tasker/internal/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(commands.ExitFailure)
	}
}

var rootCmd = &cobra.Command{
	Use:               "tasker",
	Short:             "A simple CLI task manager",
	Args:              noCommandArgs,
	RunE:              runRoot,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var (
	flagBackend  string
	flagFile     string
	flagConfig   string
	flagLogLevel string
)

var (
	// cfg is resolved from defaults, --config, and flags before any command runs.
	cfg = &config.Config{}

	// logger writes diagnostics to stderr. It is replaced once the log level
	// is known.
	logger = logging.New(os.Stderr, logging.DefaultOptions())
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagBackend, "backend", "", "Storage backend: sqlite or json (default sqlite)")
	flags.StringVarP(&flagFile, "file", "f", "", "Path to the task file (default tasks.db or tasks.json)")
	flags.StringVar(&flagConfig, "config", "", "Path to a TOML config file")
	flags.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return commands.Usagef("%v", err)
	})
}

func noCommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return commands.Usagef("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	return commands.Usagef("missing command: expected one of add, list, complete, delete")
}

// loadConfig merges the config file and flags into cfg and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return commands.Usagef("%v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		loaded.Store.Backend = flagBackend
	}
	if flags.Changed("file") {
		loaded.Store.Path = flagFile
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = flagLogLevel
	}

	if err := loaded.Resolve(); err != nil {
		return commands.Usagef("%v", err)
	}

	cfg = loaded
	logger = logging.NewFromLevel(cmd.ErrOrStderr(), cfg.Log.Level)
	logger.Debug("resolved config", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "config", flagConfig)
	return nil
}

// withHandlers opens the configured store, runs fn, and closes the store.
func withHandlers(cmd *cobra.Command, fn func(h *commands.Handlers) error) (err error) {
	s, err := store.Open(cmd.Context(), store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	return fn(commands.New(s, cmd.OutOrStdout(), logger))
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int, names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			if len(args) < n && len(names) > len(args) {
				return commands.Usagef("missing required argument <%s>", names[len(args)])
			}
			return commands.Usagef("%v", err)
		}
		return nil
	}
}
