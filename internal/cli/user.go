package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/password"
	"github.com/roach88/rollcall/internal/store"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserSetPasswordCommand(rootOpts))

	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var email, plain, displayName string

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Create a user and print the new id",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(rootOpts, cmd, email, plain, displayName)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (unique)")
	cmd.Flags().StringVar(&plain, "password", "", "plain-text password, hashed before storage")
	cmd.Flags().StringVar(&displayName, "display-name", "", "name shown to other users")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("display-name")

	return cmd
}

func runUserAdd(opts *RootOptions, cmd *cobra.Command, email, plain, displayName string) error {
	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	user, err := createUser(cmd.Context(), s, email, plain, displayName)
	if err != nil {
		return err
	}

	slog.Info("user created", slog.String("id", user.ID), slog.String("email", user.Email))
	fmt.Fprintln(cmd.OutOrStdout(), user.ID)
	return nil
}

// createUser validates, hashes and stores a new user. Email and display
// name are normalized before they hit the store.
func createUser(ctx context.Context, s *store.Store, email, plain, displayName string) (model.User, error) {
	email = normalizeEmail(email)
	displayName = norm.NFC.String(displayName)

	if err := checkPasswordStrength(plain); err != nil {
		return model.User{}, err
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return model.User{}, WrapExitError(ExitCommandError, "hashing password", err)
	}

	users, err := s.UpsertUsers(ctx, []model.User{{
		Email:       email,
		DisplayName: displayName,
		Password:    model.PasswordSet(hashed),
	}})
	if err != nil {
		return model.User{}, WrapExitError(ExitFailure, "creating user", err)
	}
	return users[0], nil
}

func newUserSetPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	var email, plain string

	cmd := &cobra.Command{
		Use:           "set-password",
		Short:         "Replace a user's password",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserSetPassword(rootOpts, cmd, email, plain)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	cmd.Flags().StringVar(&plain, "password", "", "plain-text password, hashed before storage")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runUserSetPassword(opts *RootOptions, cmd *cobra.Command, email, plain string) error {
	email = normalizeEmail(email)

	if err := checkPasswordStrength(plain); err != nil {
		return err
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing password", err)
	}

	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	users, err := s.QueryUsers(cmd.Context(), store.UserEmailEquals(email))
	if err != nil {
		return WrapExitError(ExitFailure, "looking up user", err)
	}
	if len(users) == 0 {
		return NewExitError(ExitFailure, "no user with email %s", email)
	}

	user := users[0]
	user.Password = model.PasswordSet(hashed)
	if _, err := s.UpsertUsers(cmd.Context(), []model.User{user}); err != nil {
		return WrapExitError(ExitFailure, "updating user", err)
	}

	slog.Info("password updated", slog.String("id", user.ID), slog.String("email", email))
	fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
	return nil
}

// normalizeEmail canonicalizes an operator-entered email address: Unicode
// NFC, lower-cased. Lookups and the unique index both see this form.
func normalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(email))
}

// checkPasswordStrength rejects passwords missing any strength requirement,
// naming everything missing.
func checkPasswordStrength(plain string) error {
	v := password.Check(plain)
	if v.OK() {
		return nil
	}

	var missing []string
	if !v.HasUppercase {
		missing = append(missing, "an uppercase letter")
	}
	if !v.HasLowercase {
		missing = append(missing, "a lowercase letter")
	}
	if !v.HasNumber {
		missing = append(missing, "a number")
	}
	if !v.HasSpecial {
		missing = append(missing, "a special character")
	}
	if !v.IsLongEnough {
		missing = append(missing, fmt.Sprintf("at least %d characters", password.MinLength))
	}
	return NewExitError(ExitFailure, "password needs %s", strings.Join(missing, ", "))
}
