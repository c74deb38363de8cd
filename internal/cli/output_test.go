package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError_Error(t *testing.T) {
	plain := NewExitError(ExitFailure, "no user with email %s", "alice@example.com")
	assert.Equal(t, "no user with email alice@example.com", plain.Error())

	wrapped := WrapExitError(ExitCommandError, "opening database", errors.New("disk full"))
	assert.Equal(t, "opening database: disk full", wrapped.Error())
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := WrapExitError(ExitCommandError, "opening database", cause)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, errors.Unwrap(NewExitError(ExitFailure, "plain failure")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("ordinary error")))
}

func TestGetExitCode_WrappedExitError(t *testing.T) {
	inner := NewExitError(ExitCommandError, "bad flag")
	outer := fmt.Errorf("running command: %w", inner)
	assert.Equal(t, ExitCommandError, GetExitCode(outer))
}
