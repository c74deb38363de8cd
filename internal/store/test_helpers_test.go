package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rollcall/internal/model"
)

// createTestStore creates a file-backed store in a temp dir with the
// production id generator.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStoreWithIDs creates a store whose generator hands out the
// given ids in order, so tests can assert exact row ids.
func createTestStoreWithIDs(t *testing.T, ids ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenWithGenerator(path, NewFixedGenerator(ids...))
	if err != nil {
		t.Fatalf("OpenWithGenerator() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedOrganization inserts one organization and returns its id.
func seedOrganization(t *testing.T, s *Store, name string) string {
	t.Helper()
	orgs, err := s.UpsertOrganizations(context.Background(), []model.Organization{{Name: name}})
	if err != nil {
		t.Fatalf("UpsertOrganizations() failed: %v", err)
	}
	return orgs[0].ID
}

// seedEvent inserts one event under the organization and returns its id.
func seedEvent(t *testing.T, s *Store, orgID, name string) string {
	t.Helper()
	events, err := s.UpsertEvents(context.Background(), []model.Event{{Organization: orgID, Name: name}})
	if err != nil {
		t.Fatalf("UpsertEvents() failed: %v", err)
	}
	return events[0].ID
}

// seedUser inserts one user with no credential and returns its id.
func seedUser(t *testing.T, s *Store, email string) string {
	t.Helper()
	users, err := s.UpsertUsers(context.Background(), []model.User{{
		Email:       email,
		DisplayName: "Test User",
		Password:    model.PasswordUnset{},
	}})
	if err != nil {
		t.Fatalf("UpsertUsers() failed: %v", err)
	}
	return users[0].ID
}

// assertMissingID fails unless err is an id-does-not-exist error for id.
func assertMissingID(t *testing.T, err error, id string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected id-does-not-exist error for %q, got nil", id)
	}
	if !IsIDDoesNotExist(err) {
		t.Fatalf("expected id-does-not-exist error for %q, got: %v", id, err)
	}
	se := err.(*Error)
	if se.ID != id {
		t.Errorf("missing id = %q, want %q", se.ID, id)
	}
}
