// Package cli implements the rollcall administrative commands: database
// migration, bootstrap, user and permission management, and signing-key
// rotation.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/config"
)

// RootOptions holds global flags for all commands. Config is the resolved
// configuration: file values (when --config is given) with flag overrides
// applied, validated before any subcommand runs.
type RootOptions struct {
	DBPath     string
	ConfigPath string
	LogLevel   string

	Config config.Config
}

// NewRootCommand creates the root command for the rollcall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "rollcall - event registration administration",
		Long:  "Administer a rollcall deployment: migrate the database, manage users and permissions, and rotate signing keys.",
	}
	cmd.PersistentPreRunE = func(_ *cobra.Command, args []string) error {
		cfg := config.Default()
		if opts.ConfigPath != "" {
			loaded, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			cfg = loaded
		}

		// Flags override file values
		if cmd.PersistentFlags().Changed("db") {
			cfg.Database = opts.DBPath
		}
		if cmd.PersistentFlags().Changed("log-level") {
			cfg.LogLevel = opts.LogLevel
		}
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}

		opts.Config = cfg
		slog.SetDefault(newLogger(cfg))
		return nil
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewPermissionCommand(opts))
	cmd.AddCommand(NewKeyCommand(opts))

	return cmd
}

// newLogger builds the process logger from validated configuration.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
}
