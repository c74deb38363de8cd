package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/keyring"
	"github.com/roach88/rollcall/internal/store"
)

// NewKeyCommand creates the key command group.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage signing keys",
	}

	cmd.AddCommand(newKeyRotateCommand(rootOpts))

	return cmd
}

func newKeyRotateCommand(rootOpts *RootOptions) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Generate a fresh signing key",
		Long: `Generate a fresh signing key and make it current. With --clear, all
prior keys are deleted afterwards, invalidating anything they signed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRotate(rootOpts, cmd, clear)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "delete all prior keys after rotating")

	return cmd
}

func runKeyRotate(opts *RootOptions, cmd *cobra.Command, clear bool) error {
	s, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	key, err := keyring.New(s).Rotate(cmd.Context(), clear)
	if err != nil {
		return WrapExitError(ExitFailure, "rotating signing key", err)
	}

	slog.Info("signing key rotated", slog.String("id", key.ID), slog.Bool("cleared", clear))
	fmt.Fprintln(cmd.OutOrStdout(), key.ID)
	return nil
}
