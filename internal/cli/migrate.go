package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/store"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database and bring its schema up to date",
		Long: `Create the database file if it does not exist, apply the schema, and run
any pending migrations. Safe to run repeatedly.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - main handles error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}

	return cmd
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	slog.Info("database migrated", slog.String("path", opts.Config.Database))
	fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s\n", opts.Config.Database)
	return nil
}
