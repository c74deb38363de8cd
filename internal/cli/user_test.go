package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/password"
	"github.com/roach88/rollcall/internal/store"
)

func TestUserAdd_CreatesUser(t *testing.T) {
	dbPath := testDBPath(t)

	out, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "aaAA11!!",
		"--display-name", "Alice")
	require.NoError(t, err)

	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	s := openStore(t, dbPath)
	users, err := s.QueryUsers(context.Background(), store.UserEmailEquals("alice@example.com"))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, id, users[0].ID)
	assert.Equal(t, "Alice", users[0].DisplayName)

	// The stored credential is a hash of the submitted password, never the
	// plaintext.
	hashed, ok := users[0].Password.(model.PasswordSet)
	require.True(t, ok)
	assert.NotEqual(t, "aaAA11!!", string(hashed))

	match, err := password.Verify("aaAA11!!", string(hashed))
	require.NoError(t, err)
	assert.True(t, match)
}

func TestUserAdd_NormalizesEmailAndDisplayName(t *testing.T) {
	dbPath := testDBPath(t)

	// Decomposed e + combining accent; storage composes it.
	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "Alice@Example.COM",
		"--password", "aaAA11!!",
		"--display-name", "Café Crew")
	require.NoError(t, err)

	s := openStore(t, dbPath)
	users, err := s.QueryUsers(context.Background(), store.UserEmailEquals("alice@example.com"))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, "Café Crew", users[0].DisplayName)
}

func TestUserAdd_WeakPasswordRejected(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "weak",
		"--display-name", "Alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password needs")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	s := openStore(t, dbPath)
	users, err := s.QueryUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserAdd_DuplicateEmailFails(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "aaAA11!!",
		"--display-name", "Alice")
	require.NoError(t, err)

	_, err = runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "bbBB22@@",
		"--display-name", "Other Alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating user")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestUserSetPassword_ReplacesCredential(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "aaAA11!!",
		"--display-name", "Alice")
	require.NoError(t, err)

	out, err := runCommand(t, dbPath, "user", "set-password",
		"--email", "alice@example.com",
		"--password", "bbBB22@@")
	require.NoError(t, err)
	assert.Contains(t, out, "password updated for alice@example.com")

	s := openStore(t, dbPath)
	users, err := s.QueryUsers(context.Background(), store.UserEmailEquals("alice@example.com"))
	require.NoError(t, err)
	require.Len(t, users, 1)

	hashed, ok := users[0].Password.(model.PasswordSet)
	require.True(t, ok)

	match, err := password.Verify("bbBB22@@", string(hashed))
	require.NoError(t, err)
	assert.True(t, match)

	match, err = password.Verify("aaAA11!!", string(hashed))
	require.NoError(t, err)
	assert.False(t, match, "old password should no longer verify")
}

func TestUserSetPassword_NormalizesEmail(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "aaAA11!!",
		"--display-name", "Alice")
	require.NoError(t, err)

	_, err = runCommand(t, dbPath, "user", "set-password",
		"--email", "ALICE@Example.com",
		"--password", "bbBB22@@")
	require.NoError(t, err)
}

func TestUserSetPassword_UnknownEmailFails(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "set-password",
		"--email", "ghost@example.com",
		"--password", "aaAA11!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user with email ghost@example.com")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestUserSetPassword_WeakPasswordRejected(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCommand(t, dbPath, "user", "add",
		"--email", "alice@example.com",
		"--password", "aaAA11!!",
		"--display-name", "Alice")
	require.NoError(t, err)

	_, err = runCommand(t, dbPath, "user", "set-password",
		"--email", "alice@example.com",
		"--password", "weak")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password needs")

	// The stored credential is untouched.
	s := openStore(t, dbPath)
	users, err := s.QueryUsers(context.Background(), store.UserEmailEquals("alice@example.com"))
	require.NoError(t, err)
	require.Len(t, users, 1)

	hashed, ok := users[0].Password.(model.PasswordSet)
	require.True(t, ok)
	match, err := password.Verify("aaAA11!!", string(hashed))
	require.NoError(t, err)
	assert.True(t, match)
}
