package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// seedPermission grants one role to a user and returns the permission id.
func seedPermission(t *testing.T, s *Store, userID string, role model.Role) string {
	t.Helper()
	perms, err := s.UpsertPermissions(context.Background(), []model.Permission{{User: userID, Role: role}})
	if err != nil {
		t.Fatalf("UpsertPermissions() failed: %v", err)
	}
	return perms[0].ID
}

func TestUpsertPermissions_InsertAllRoles(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orgID := seedOrganization(t, s, "Acme")
	eventID := seedEvent(t, s, orgID, "Spring Gala")
	userID := seedUser(t, s, "kay@example.com")

	submitted := []model.Permission{
		{User: userID, Role: model.ServerAdmin{}},
		{User: userID, Role: model.OrganizationAdmin{Organization: orgID}},
		{User: userID, Role: model.OrganizationViewer{Organization: orgID}},
		{User: userID, Role: model.EventAdmin{Event: eventID}},
		{User: userID, Role: model.EventEditor{Event: eventID}},
		{User: userID, Role: model.EventViewer{Event: eventID}},
	}
	out, err := s.UpsertPermissions(ctx, submitted)
	if err != nil {
		t.Fatalf("UpsertPermissions() failed: %v", err)
	}
	for i, perm := range out {
		if perm.ID == "" {
			t.Errorf("permission %d has no generated id", i)
		}
	}

	got, err := s.QueryPermissions(ctx, PermissionUserEquals(userID))
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if !reflect.DeepEqual(got, out) {
		t.Errorf("round trip = %+v, want %+v", got, out)
	}
}

func TestUpsertPermissions_UnknownUserFails(t *testing.T) {
	s := createTestStore(t)

	_, err := s.UpsertPermissions(context.Background(), []model.Permission{
		{User: "ghost", Role: model.ServerAdmin{}},
	})
	assertMissingID(t, err, "ghost")
}

func TestUpsertPermissions_UnknownOrganizationScopeFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	userID := seedUser(t, s, "kay@example.com")

	_, err := s.UpsertPermissions(ctx, []model.Permission{
		{User: userID, Role: model.OrganizationAdmin{Organization: "ghost-org"}},
	})
	assertMissingID(t, err, "ghost-org")
}

func TestUpsertPermissions_UnknownEventScopeFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	userID := seedUser(t, s, "kay@example.com")

	_, err := s.UpsertPermissions(ctx, []model.Permission{
		{User: userID, Role: model.EventEditor{Event: "ghost-event"}},
	})
	assertMissingID(t, err, "ghost-event")
}

func TestUpsertPermissions_ScopeValidatedBeforeUser(t *testing.T) {
	s := createTestStore(t)

	// Both the scope and the user are missing; the scope failure is
	// reported first.
	_, err := s.UpsertPermissions(context.Background(), []model.Permission{
		{User: "ghost-user", Role: model.OrganizationAdmin{Organization: "ghost-org"}},
	})
	assertMissingID(t, err, "ghost-org")
}

func TestUpsertPermissions_UpdateSwapsScope(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orgID := seedOrganization(t, s, "Acme")
	eventID := seedEvent(t, s, orgID, "Spring Gala")
	userID := seedUser(t, s, "kay@example.com")
	permID := seedPermission(t, s, userID, model.OrganizationViewer{Organization: orgID})

	// The row moves from an organization scope to an event scope; the
	// stale scope column must come back NULL, not linger.
	_, err := s.UpsertPermissions(ctx, []model.Permission{
		{ID: permID, User: userID, Role: model.EventEditor{Event: eventID}},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := s.QueryPermissions(ctx, PermissionIDEquals(permID))
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	want := []model.Permission{{ID: permID, User: userID, Role: model.EventEditor{Event: eventID}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stored permission = %+v, want %+v", got, want)
	}
}

func TestUpsertPermissions_UnknownUpdateIDFailsBatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	userID := seedUser(t, s, "kay@example.com")

	_, err := s.UpsertPermissions(ctx, []model.Permission{
		{ID: "ghost", User: userID, Role: model.ServerAdmin{}},
	})
	assertMissingID(t, err, "ghost")
}

func TestQueryPermissions_RoleIs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	globex := seedOrganization(t, s, "Globex")
	kay := seedUser(t, s, "kay@example.com")
	lee := seedUser(t, s, "lee@example.com")
	seedPermission(t, s, kay, model.OrganizationAdmin{Organization: acme})
	seedPermission(t, s, lee, model.OrganizationAdmin{Organization: globex})
	seedPermission(t, s, lee, model.ServerAdmin{})

	// Scoped match: role and scope column together
	perms, err := s.QueryPermissions(ctx, PermissionRoleIs(model.OrganizationAdmin{Organization: acme}))
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if len(perms) != 1 || perms[0].User != kay {
		t.Errorf("RoleIs(acme admin) = %+v, want kay's grant only", perms)
	}
}

func TestQueryPermissions_RoleIsNot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	kay := seedUser(t, s, "kay@example.com")
	lee := seedUser(t, s, "lee@example.com")
	seedPermission(t, s, kay, model.OrganizationAdmin{Organization: acme})
	seedPermission(t, s, lee, model.ServerAdmin{})

	perms, err := s.QueryPermissions(ctx, PermissionRoleIsNot(model.ServerAdmin{}))
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if len(perms) != 1 || perms[0].User != kay {
		t.Errorf("RoleIsNot(server admin) = %+v, want kay's grant only", perms)
	}
}

func TestQueryPermissions_CompoundUserAndRole(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	kay := seedUser(t, s, "kay@example.com")
	lee := seedUser(t, s, "lee@example.com")
	seedPermission(t, s, kay, model.OrganizationAdmin{Organization: acme})
	seedPermission(t, s, kay, model.ServerAdmin{})
	seedPermission(t, s, lee, model.OrganizationAdmin{Organization: acme})

	perms, err := s.QueryPermissions(ctx, query.And{Clauses: []query.Clause{
		PermissionUserEquals(kay),
		PermissionRoleIs(model.OrganizationAdmin{Organization: acme}),
	}})
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if len(perms) != 1 || perms[0].User != kay {
		t.Errorf("compound query = %+v, want kay's org-admin grant only", perms)
	}
	if _, ok := perms[0].Role.(model.OrganizationAdmin); !ok {
		t.Errorf("compound query matched role %#v", perms[0].Role)
	}
}

func TestQueryPermissions_EmptyResultIsNotNil(t *testing.T) {
	s := createTestStore(t)

	perms, err := s.QueryPermissions(context.Background(), nil)
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if perms == nil {
		t.Error("QueryPermissions() returned nil, want empty slice")
	}
}

func TestQueryPermissions_CorruptRoleIsColumnParse(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	userID := seedUser(t, s, "kay@example.com")

	tests := []struct {
		name       string
		insert     string
		wantColumn string
	}{
		{
			name:       "unknown role name",
			insert:     `INSERT INTO permissions (id, user, role) VALUES ('p1', ?, 'WIZARD')`,
			wantColumn: "role",
		},
		{
			name:       "organization scope missing",
			insert:     `INSERT INTO permissions (id, user, role) VALUES ('p2', ?, 'ORGANIZATION_ADMIN')`,
			wantColumn: "organization",
		},
		{
			name:       "event scope missing",
			insert:     `INSERT INTO permissions (id, user, role) VALUES ('p3', ?, 'EVENT_VIEWER')`,
			wantColumn: "event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustExec(t, s.db, `DELETE FROM permissions`)
			mustExec(t, s.db, tt.insert, userID)

			_, err := s.QueryPermissions(ctx, nil)
			if !IsColumnParse(err) {
				t.Fatalf("expected column parse error, got: %v", err)
			}
			if se := err.(*Error); se.Column != tt.wantColumn {
				t.Errorf("column = %q, want %q", se.Column, tt.wantColumn)
			}
		})
	}
}

func TestDeletePermissions_RemovesRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	userID := seedUser(t, s, "kay@example.com")
	permID := seedPermission(t, s, userID, model.ServerAdmin{})

	if err := s.DeletePermissions(ctx, []string{permID}); err != nil {
		t.Fatalf("DeletePermissions() failed: %v", err)
	}

	perms, err := s.QueryPermissions(ctx, nil)
	if err != nil {
		t.Fatalf("QueryPermissions() failed: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("after delete: %d permissions left, want 0", len(perms))
	}
}

func TestDeletePermissions_UnknownIDFails(t *testing.T) {
	s := createTestStore(t)

	err := s.DeletePermissions(context.Background(), []string{"ghost"})
	assertMissingID(t, err, "ghost")
}

// Authorization checks

func TestCheckPermissions_EmptyBatch(t *testing.T) {
	s := createTestStore(t)

	failures, err := s.CheckPermissions(context.Background(), nil)
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	if failures == nil || len(failures) != 0 {
		t.Errorf("CheckPermissions(nil) = %v, want empty slice", failures)
	}
}

func TestCheckPermissions_UserWithoutGrantsFailsEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orgID := seedOrganization(t, s, "Acme")
	userID := seedUser(t, s, "kay@example.com")

	requested := []model.Permission{
		{User: userID, Role: model.ServerAdmin{}},
		{User: userID, Role: model.OrganizationViewer{Organization: orgID}},
	}
	failures, err := s.CheckPermissions(ctx, requested)
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	if !reflect.DeepEqual(failures, requested) {
		t.Errorf("failures = %+v, want every request back", failures)
	}
}

func TestCheckPermissions_PreservesRequestOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orgID := seedOrganization(t, s, "Acme")
	kay := seedUser(t, s, "kay@example.com")
	seedPermission(t, s, kay, model.OrganizationViewer{Organization: orgID})

	// First and third requests fail, second succeeds; the failure list
	// keeps the request order.
	requested := []model.Permission{
		{User: kay, Role: model.ServerAdmin{}},
		{User: kay, Role: model.OrganizationViewer{Organization: orgID}},
		{User: kay, Role: model.OrganizationAdmin{Organization: orgID}},
	}
	failures, err := s.CheckPermissions(ctx, requested)
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	want := []model.Permission{
		{User: kay, Role: model.ServerAdmin{}},
		{User: kay, Role: model.OrganizationAdmin{Organization: orgID}},
	}
	if !reflect.DeepEqual(failures, want) {
		t.Errorf("failures = %+v, want %+v", failures, want)
	}
}

func TestCheckPermissions_OrganizationAdminReachesOwnedEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	globex := seedOrganization(t, s, "Globex")
	acmeEvent := seedEvent(t, s, acme, "Spring Gala")
	globexEvent := seedEvent(t, s, globex, "Winter Expo")
	kay := seedUser(t, s, "kay@example.com")
	seedPermission(t, s, kay, model.OrganizationAdmin{Organization: acme})

	requested := []model.Permission{
		{User: kay, Role: model.EventAdmin{Event: acmeEvent}},
		{User: kay, Role: model.EventAdmin{Event: globexEvent}},
	}
	failures, err := s.CheckPermissions(ctx, requested)
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	want := []model.Permission{{User: kay, Role: model.EventAdmin{Event: globexEvent}}}
	if !reflect.DeepEqual(failures, want) {
		t.Errorf("failures = %+v, want only the foreign event", failures)
	}
}

func TestCheckPermissions_SecondGrantCanSatisfy(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	globex := seedOrganization(t, s, "Globex")
	globexEvent := seedEvent(t, s, globex, "Winter Expo")
	kay := seedUser(t, s, "kay@example.com")
	seedPermission(t, s, kay, model.OrganizationViewer{Organization: acme})
	seedPermission(t, s, kay, model.OrganizationViewer{Organization: globex})

	// The first grant does not cover the request; the second does.
	failures, err := s.CheckPermissions(ctx, []model.Permission{
		{User: kay, Role: model.EventViewer{Event: globexEvent}},
	})
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %+v, want none", failures)
	}
}

// TestCheckPermissions_MatchesSatisfies drives the stored hierarchy and
// the in-process one over the same grant/request matrix and requires them
// to agree everywhere. Each user holds exactly one grant, so a request
// fails exactly when that grant does not satisfy it.
func TestCheckPermissions_MatchesSatisfies(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	acme := seedOrganization(t, s, "Acme")
	globex := seedOrganization(t, s, "Globex")
	acmeEvent := seedEvent(t, s, acme, "Spring Gala")
	globexEvent := seedEvent(t, s, globex, "Winter Expo")
	eventOwners := map[string]string{acmeEvent: acme, globexEvent: globex}

	grants := []model.Role{
		model.ServerAdmin{},
		model.OrganizationAdmin{Organization: acme},
		model.OrganizationViewer{Organization: acme},
		model.EventAdmin{Event: acmeEvent},
		model.EventEditor{Event: acmeEvent},
		model.EventViewer{Event: acmeEvent},
	}
	holders := make([]string, len(grants))
	emails := []string{
		"server-admin@example.com",
		"org-admin@example.com",
		"org-viewer@example.com",
		"event-admin@example.com",
		"event-editor@example.com",
		"event-viewer@example.com",
	}
	for i, role := range grants {
		holders[i] = seedUser(t, s, emails[i])
		seedPermission(t, s, holders[i], role)
	}

	requestedRoles := []model.Role{
		model.ServerAdmin{},
		model.OrganizationAdmin{Organization: acme},
		model.OrganizationAdmin{Organization: globex},
		model.OrganizationViewer{Organization: acme},
		model.OrganizationViewer{Organization: globex},
		model.EventAdmin{Event: acmeEvent},
		model.EventAdmin{Event: globexEvent},
		model.EventEditor{Event: acmeEvent},
		model.EventEditor{Event: globexEvent},
		model.EventViewer{Event: acmeEvent},
		model.EventViewer{Event: globexEvent},
	}

	var requested, want []model.Permission
	for i, userID := range holders {
		for _, role := range requestedRoles {
			req := model.Permission{User: userID, Role: role}
			requested = append(requested, req)
			if !model.Satisfies(grants[i], role, eventOwners) {
				want = append(want, req)
			}
		}
	}

	failures, err := s.CheckPermissions(ctx, requested)
	if err != nil {
		t.Fatalf("CheckPermissions() failed: %v", err)
	}
	if !reflect.DeepEqual(failures, want) {
		t.Errorf("stored hierarchy disagrees with Satisfies:\n got %+v\nwant %+v", failures, want)
	}
}
