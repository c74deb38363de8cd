package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/keyring"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var email, plain, displayName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Prepare a deployment for first use",
		Long: `Migrate the database, generate a signing key if none exists, and, when
the user table is empty, create the bootstrap user and grant it
SERVER_ADMIN. The user flags are only required on that first run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd, email, plain, displayName)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address for the bootstrap user")
	cmd.Flags().StringVar(&plain, "password", "", "password for the bootstrap user")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name for the bootstrap user")

	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command, email, plain, displayName string) error {
	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "database ready at %s\n", opts.Config.Database)

	hasKeys, err := s.HasKeys(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "checking signing keys", err)
	}
	if !hasKeys {
		key, err := keyring.New(s).Rotate(ctx, false)
		if err != nil {
			return WrapExitError(ExitFailure, "generating signing key", err)
		}
		slog.Info("signing key generated", slog.String("id", key.ID))
		fmt.Fprintf(out, "generated signing key %s\n", key.ID)
	}

	users, err := s.QueryUsers(ctx, nil)
	if err != nil {
		return WrapExitError(ExitFailure, "listing users", err)
	}
	if len(users) > 0 {
		return nil
	}

	if email == "" || plain == "" || displayName == "" {
		return NewExitError(ExitCommandError,
			"no users exist; --email, --password and --display-name are required to create the first one")
	}

	user, err := createUser(ctx, s, email, plain, displayName)
	if err != nil {
		return err
	}
	if _, err := s.UpsertPermissions(ctx, []model.Permission{{
		User: user.ID,
		Role: model.ServerAdmin{},
	}}); err != nil {
		return WrapExitError(ExitFailure, "granting server admin", err)
	}

	slog.Info("bootstrap user created", slog.String("id", user.ID), slog.String("email", user.Email))
	fmt.Fprintf(out, "created server admin %s (%s)\n", user.ID, user.Email)
	return nil
}
