package store

import (
	"context"
	"database/sql"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// PermissionIDEquals filters permissions by exact id.
func PermissionIDEquals(id string) query.Clause {
	return query.Equals{Column: "id", Value: id}
}

// PermissionIDNotEquals filters permissions excluding one id.
func PermissionIDNotEquals(id string) query.Clause {
	return query.NotEquals{Column: "id", Value: id}
}

// PermissionUserEquals filters permissions by owning user.
func PermissionUserEquals(userID string) query.Clause {
	return query.Equals{Column: "user", Value: userID}
}

// PermissionUserNotEquals filters permissions excluding one user.
func PermissionUserNotEquals(userID string) query.Clause {
	return query.NotEquals{Column: "user", Value: userID}
}

// PermissionRoleIs filters permissions granting exactly the role,
// including its scope.
func PermissionRoleIs(role model.Role) query.Clause {
	return query.RoleIs{Role: role}
}

// PermissionRoleIsNot filters permissions granting anything but the role.
func PermissionRoleIsNot(role model.Role) query.Clause {
	return query.RoleIsNot{Role: role}
}

// roleColumns returns the role, organization, and event column values for
// a grant. The scope column not carried by the role is NULL.
func roleColumns(role model.Role) (name string, organization, event any) {
	switch r := role.(type) {
	case model.ServerAdmin:
		return model.RoleServerAdmin, nil, nil
	case model.OrganizationAdmin:
		return model.RoleOrganizationAdmin, r.Organization, nil
	case model.OrganizationViewer:
		return model.RoleOrganizationViewer, r.Organization, nil
	case model.EventAdmin:
		return model.RoleEventAdmin, nil, r.Event
	case model.EventEditor:
		return model.RoleEventEditor, nil, r.Event
	case model.EventViewer:
		return model.RoleEventViewer, nil, r.Event
	}
	return "", nil, nil
}

// parseRoleColumns rebuilds a role from its stored columns. An
// unrecognized role name, or a NULL scope column the role requires, is a
// column parse error.
func parseRoleColumns(name string, organization, event sql.NullString) (model.Role, error) {
	switch name {
	case model.RoleServerAdmin:
		return model.ServerAdmin{}, nil
	case model.RoleOrganizationAdmin:
		if !organization.Valid {
			return nil, NewColumnParseError("organization")
		}
		return model.OrganizationAdmin{Organization: organization.String}, nil
	case model.RoleOrganizationViewer:
		if !organization.Valid {
			return nil, NewColumnParseError("organization")
		}
		return model.OrganizationViewer{Organization: organization.String}, nil
	case model.RoleEventAdmin:
		if !event.Valid {
			return nil, NewColumnParseError("event")
		}
		return model.EventAdmin{Event: event.String}, nil
	case model.RoleEventEditor:
		if !event.Valid {
			return nil, NewColumnParseError("event")
		}
		return model.EventEditor{Event: event.String}, nil
	case model.RoleEventViewer:
		if !event.Valid {
			return nil, NewColumnParseError("event")
		}
		return model.EventViewer{Event: event.String}, nil
	}
	return nil, NewColumnParseError("role")
}

// UpsertPermissions inserts permissions with empty ids and updates the
// rest, in one transaction. Every referenced user, and every organization
// or event a role is scoped to, must exist before any row is written.
// Returned permissions keep submission order with generated ids filled in.
func (s *Store) UpsertPermissions(ctx context.Context, perms []model.Permission) ([]model.Permission, error) {
	if len(perms) == 0 {
		return []model.Permission{}, nil
	}

	ids := make([]string, len(perms))
	for i, perm := range perms {
		ids[i] = perm.ID
	}
	inserts, updates := classifyByID(ids)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // No-op if committed

	var orgIDs, eventIDs []string
	for _, perm := range perms {
		switch r := perm.Role.(type) {
		case model.OrganizationAdmin:
			orgIDs = append(orgIDs, r.Organization)
		case model.OrganizationViewer:
			orgIDs = append(orgIDs, r.Organization)
		case model.EventAdmin:
			eventIDs = append(eventIDs, r.Event)
		case model.EventEditor:
			eventIDs = append(eventIDs, r.Event)
		case model.EventViewer:
			eventIDs = append(eventIDs, r.Event)
		}
	}
	if err := idsInTable(ctx, tx, "organizations", orgIDs); err != nil {
		return nil, err
	}
	if err := idsInTable(ctx, tx, "events", eventIDs); err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(perms))
	for _, perm := range perms {
		userIDs = append(userIDs, perm.User)
	}
	if err := idsInTable(ctx, tx, "users", userIDs); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		updateIDs := make([]string, 0, len(updates))
		for _, i := range updates {
			updateIDs = append(updateIDs, perms[i].ID)
		}
		if err := idsInTable(ctx, tx, "permissions", updateIDs); err != nil {
			return nil, err
		}
	}

	out := make([]model.Permission, len(perms))
	copy(out, perms)
	for _, i := range inserts {
		out[i].ID = s.ids.Generate()
	}

	if len(inserts) > 0 {
		stmt := "INSERT INTO permissions(id, user, role, organization, event) VALUES " + valuesClause(len(inserts), 5)
		args := make([]any, 0, len(inserts)*5)
		for _, i := range inserts {
			role, organization, event := roleColumns(out[i].Role)
			args = append(args, out[i].ID, out[i].User, role, organization, event)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updates) > 0 {
		stmt := `
			WITH mydata(id, user, role, organization, event) AS (VALUES ` + valuesClause(len(updates), 5) + `)
			UPDATE permissions
			SET user = mydata.user,
			    role = mydata.role,
			    organization = mydata.organization,
			    event = mydata.event
			FROM mydata
			WHERE permissions.id = mydata.id
		`
		args := make([]any, 0, len(updates)*5)
		for _, i := range updates {
			role, organization, event := roleColumns(out[i].Role)
			args = append(args, out[i].ID, out[i].User, role, organization, event)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, NewTransactionCommitError(err)
	}

	return out, nil
}

// QueryPermissions returns permissions matching the clause, or all rows
// when the clause is nil. The table is aliased p so role clauses and
// plain column clauses compose in one filter.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryPermissions(ctx context.Context, clause query.Clause) ([]model.Permission, error) {
	stmt := "SELECT p.id, p.user, p.role, p.organization, p.event FROM permissions p"
	var args []any
	if clause != nil {
		fragment, params, err := query.Compile(clause)
		if err != nil {
			return nil, NewFetchError(err)
		}
		stmt += " WHERE " + fragment
		args = params
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var perm model.Permission
		var role string
		var organization, event sql.NullString
		if err := rows.Scan(&perm.ID, &perm.User, &role, &organization, &event); err != nil {
			return nil, NewFetchError(err)
		}
		perm.Role, err = parseRoleColumns(role, organization, event)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if perms == nil {
		perms = []model.Permission{}
	}

	return perms, nil
}

// DeletePermissions removes permissions by id after validating every id
// exists. Empty input is a no-op success.
func (s *Store) DeletePermissions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "permissions", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM permissions WHERE " + equalsAnyClause("id", len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return NewDeleteError(err)
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionCommitError(err)
	}

	return nil
}

// CheckPermissions evaluates a batch of requested permissions against
// stored grants and returns the subset NOT satisfied, in request order.
// An empty result means the whole batch is authorized.
//
// One query covers the batch regardless of its size: the requested rows
// form a literal table and a row survives only when no stored grant for
// its user satisfies it under the role hierarchy. A grant scoped to an
// organization reaches that organization's events through the events
// join. The in-process equivalent of the hierarchy is model.Satisfies;
// the two must agree.
func (s *Store) CheckPermissions(ctx context.Context, requested []model.Permission) ([]model.Permission, error) {
	if len(requested) == 0 {
		return []model.Permission{}, nil
	}

	stmt := `
		WITH requested(idx, user, role, organization, event) AS (VALUES ` +
		valuesClause(len(requested), 5) + `)
		SELECT idx, user, role, organization, event FROM requested
		WHERE NOT EXISTS (
			SELECT 1 FROM permissions p
			LEFT JOIN events e ON p.organization = e.organization
			WHERE p.user = requested.user AND (
				(requested.role = 'SERVER_ADMIN' AND p.role = 'SERVER_ADMIN')
				OR (requested.role = 'ORGANIZATION_ADMIN' AND (
					p.role = 'SERVER_ADMIN'
					OR (p.role = 'ORGANIZATION_ADMIN' AND p.organization = requested.organization)
				))
				OR (requested.role = 'ORGANIZATION_VIEWER' AND (
					p.role = 'SERVER_ADMIN'
					OR ((p.role = 'ORGANIZATION_ADMIN' OR p.role = 'ORGANIZATION_VIEWER') AND p.organization = requested.organization)
				))
				OR (requested.role = 'EVENT_ADMIN' AND (
					p.role = 'SERVER_ADMIN'
					OR (p.role = 'EVENT_ADMIN' AND p.event = requested.event)
					OR (p.role = 'ORGANIZATION_ADMIN' AND e.id = requested.event)
				))
				OR (requested.role = 'EVENT_EDITOR' AND (
					p.role = 'SERVER_ADMIN'
					OR ((p.role = 'EVENT_ADMIN' OR p.role = 'EVENT_EDITOR') AND p.event = requested.event)
					OR (p.role = 'ORGANIZATION_ADMIN' AND e.id = requested.event)
				))
				OR (requested.role = 'EVENT_VIEWER' AND (
					p.role = 'SERVER_ADMIN'
					OR ((p.role = 'EVENT_VIEWER' OR p.role = 'EVENT_EDITOR' OR p.role = 'EVENT_ADMIN') AND p.event = requested.event)
					OR ((p.role = 'ORGANIZATION_ADMIN' OR p.role = 'ORGANIZATION_VIEWER') AND e.id = requested.event)
				))
			)
		)
		ORDER BY idx
	`

	args := make([]any, 0, len(requested)*5)
	for i, perm := range requested {
		role, organization, event := roleColumns(perm.Role)
		args = append(args, i, perm.User, role, organization, event)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	var failures []model.Permission
	for rows.Next() {
		var idx int
		var perm model.Permission
		var role string
		var organization, event sql.NullString
		if err := rows.Scan(&idx, &perm.User, &role, &organization, &event); err != nil {
			return nil, NewFetchError(err)
		}
		perm.Role, err = parseRoleColumns(role, organization, event)
		if err != nil {
			return nil, err
		}
		failures = append(failures, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if failures == nil {
		failures = []model.Permission{}
	}

	return failures, nil
}
