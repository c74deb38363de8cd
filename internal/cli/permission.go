package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// NewPermissionCommand creates the permission command group.
func NewPermissionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage permission grants",
	}

	cmd.AddCommand(newPermissionAddCommand(rootOpts))

	return cmd
}

func newPermissionAddCommand(rootOpts *RootOptions) *cobra.Command {
	var email, role, scopeID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Grant a role to a user",
		Long: `Grant a role to the user with the given email address.

Roles: SERVER_ADMIN, ORGANIZATION_ADMIN, ORGANIZATION_VIEWER, EVENT_ADMIN,
EVENT_EDITOR, EVENT_VIEWER. Scoped roles take the organization or event id
via --id; SERVER_ADMIN takes none.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermissionAdd(rootOpts, cmd, email, role, scopeID)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	cmd.Flags().StringVar(&role, "role", "", "role name to grant")
	cmd.Flags().StringVar(&scopeID, "id", "", "organization or event id scoping the role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func runPermissionAdd(opts *RootOptions, cmd *cobra.Command, email, roleName, scopeID string) error {
	parsed, err := model.ParseRole(roleName, scopeID)
	if err != nil {
		return WrapExitError(ExitCommandError, "parsing role", err)
	}

	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	email = normalizeEmail(email)
	users, err := s.QueryUsers(cmd.Context(), store.UserEmailEquals(email))
	if err != nil {
		return WrapExitError(ExitFailure, "looking up user", err)
	}
	if len(users) == 0 {
		return NewExitError(ExitFailure, "no user with email %s", email)
	}

	perms, err := s.UpsertPermissions(cmd.Context(), []model.Permission{{
		User: users[0].ID,
		Role: parsed,
	}})
	if err != nil {
		return WrapExitError(ExitFailure, "granting permission", err)
	}

	slog.Info("permission granted",
		slog.String("id", perms[0].ID),
		slog.String("user", users[0].ID),
		slog.String("role", parsed.Name()),
	)
	fmt.Fprintln(cmd.OutOrStdout(), perms[0].ID)
	return nil
}
