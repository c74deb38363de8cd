package store

import (
	"context"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// OrganizationIDEquals filters organizations by exact id.
func OrganizationIDEquals(id string) query.Clause {
	return query.Equals{Column: "id", Value: id}
}

// OrganizationIDNotEquals filters organizations excluding one id.
func OrganizationIDNotEquals(id string) query.Clause {
	return query.NotEquals{Column: "id", Value: id}
}

// UpsertOrganizations inserts organizations with empty ids and updates the
// rest, in one transaction. Returned organizations keep submission order
// with generated ids filled in.
//
// Updating an id with no stored row fails the whole batch with
// ErrCodeIDDoesNotExist carrying the first such id in submission order.
// Empty input returns an empty slice without touching the database.
func (s *Store) UpsertOrganizations(ctx context.Context, orgs []model.Organization) ([]model.Organization, error) {
	if len(orgs) == 0 {
		return []model.Organization{}, nil
	}

	ids := make([]string, len(orgs))
	for i, org := range orgs {
		ids[i] = org.ID
	}
	inserts, updates := classifyByID(ids)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // No-op if committed

	if len(updates) > 0 {
		updateIDs := make([]string, 0, len(updates))
		for _, i := range updates {
			updateIDs = append(updateIDs, orgs[i].ID)
		}
		if err := idsInTable(ctx, tx, "organizations", updateIDs); err != nil {
			return nil, err
		}
	}

	out := make([]model.Organization, len(orgs))
	copy(out, orgs)
	for _, i := range inserts {
		out[i].ID = s.ids.Generate()
	}

	if len(inserts) > 0 {
		stmt := "INSERT INTO organizations(id, name) VALUES " + valuesClause(len(inserts), 2)
		args := make([]any, 0, len(inserts)*2)
		for _, i := range inserts {
			args = append(args, out[i].ID, out[i].Name)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updates) > 0 {
		stmt := `
			WITH mydata(id, name) AS (VALUES ` + valuesClause(len(updates), 2) + `)
			UPDATE organizations
			SET name = mydata.name
			FROM mydata
			WHERE organizations.id = mydata.id
		`
		args := make([]any, 0, len(updates)*2)
		for _, i := range updates {
			args = append(args, out[i].ID, out[i].Name)
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

// QueryOrganizations returns organizations matching the clause, or all
// rows when the clause is nil.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryOrganizations(ctx context.Context, clause query.Clause) ([]model.Organization, error) {
	stmt := "SELECT id, name FROM organizations"
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

	var orgs []model.Organization
	for rows.Next() {
		var org model.Organization
		if err := rows.Scan(&org.ID, &org.Name); err != nil {
			return nil, NewFetchError(err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if orgs == nil {
		orgs = []model.Organization{}
	}

	return orgs, nil
}

// DeleteOrganizations removes organizations by id after validating every
// id exists. Empty input is a no-op success.
func (s *Store) DeleteOrganizations(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "organizations", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM organizations WHERE " + equalsAnyClause("id", len(ids))
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
