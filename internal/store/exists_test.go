package store

import (
	"context"
	"testing"

	"github.com/roach88/rollcall/internal/model"
)

func TestIdsInTable_EmptyBatch(t *testing.T) {
	s := createTestStore(t)

	if err := idsInTable(context.Background(), s.db, "organizations", nil); err != nil {
		t.Errorf("idsInTable() with empty batch failed: %v", err)
	}
}

func TestIdsInTable_AllExist(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orgs, err := s.UpsertOrganizations(ctx, []model.Organization{
		{Name: "Acme"},
		{Name: "Globex"},
	})
	if err != nil {
		t.Fatalf("UpsertOrganizations() failed: %v", err)
	}

	ids := []string{orgs[0].ID, orgs[1].ID}
	if err := idsInTable(ctx, s.db, "organizations", ids); err != nil {
		t.Errorf("idsInTable() failed: %v", err)
	}
}

func TestIdsInTable_DuplicatesAllowed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id := seedOrganization(t, s, "Acme")

	if err := idsInTable(ctx, s.db, "organizations", []string{id, id, id}); err != nil {
		t.Errorf("idsInTable() with duplicate ids failed: %v", err)
	}
}

func TestIdsInTable_ReportsFirstMissingByInputOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id := seedOrganization(t, s, "Acme")

	// Two missing ids; the reported one must be the first in input order,
	// not whichever the database returns first.
	err := idsInTable(ctx, s.db, "organizations", []string{id, "zz-missing", "aa-missing"})
	assertMissingID(t, err, "zz-missing")
}

func TestIdsInTable_MissingAmongExisting(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id := seedOrganization(t, s, "Acme")

	err := idsInTable(ctx, s.db, "organizations", []string{"ghost", id})
	assertMissingID(t, err, "ghost")
}
