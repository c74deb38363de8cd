package store

import (
	"context"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// EventIDEquals filters events by exact id.
func EventIDEquals(id string) query.Clause {
	return query.Equals{Column: "id", Value: id}
}

// EventIDNotEquals filters events excluding one id.
func EventIDNotEquals(id string) query.Clause {
	return query.NotEquals{Column: "id", Value: id}
}

// EventOrganizationEquals filters events by owning organization.
func EventOrganizationEquals(orgID string) query.Clause {
	return query.Equals{Column: "organization", Value: orgID}
}

// EventOrganizationNotEquals filters events excluding one organization.
func EventOrganizationNotEquals(orgID string) query.Clause {
	return query.NotEquals{Column: "organization", Value: orgID}
}

// UpsertEvents inserts events with empty ids and updates the rest, in one
// transaction. Every referenced organization id must exist before any row
// is written. Returned events keep submission order with generated ids
// filled in.
func (s *Store) UpsertEvents(ctx context.Context, events []model.Event) ([]model.Event, error) {
	if len(events) == 0 {
		return []model.Event{}, nil
	}

	ids := make([]string, len(events))
	for i, event := range events {
		ids[i] = event.ID
	}
	inserts, updates := classifyByID(ids)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // No-op if committed

	orgIDs := make([]string, 0, len(events))
	for _, event := range events {
		orgIDs = append(orgIDs, event.Organization)
	}
	if err := idsInTable(ctx, tx, "organizations", orgIDs); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		updateIDs := make([]string, 0, len(updates))
		for _, i := range updates {
			updateIDs = append(updateIDs, events[i].ID)
		}
		if err := idsInTable(ctx, tx, "events", updateIDs); err != nil {
			return nil, err
		}
	}

	out := make([]model.Event, len(events))
	copy(out, events)
	for _, i := range inserts {
		out[i].ID = s.ids.Generate()
	}

	if len(inserts) > 0 {
		stmt := "INSERT INTO events(id, organization, name) VALUES " + valuesClause(len(inserts), 3)
		args := make([]any, 0, len(inserts)*3)
		for _, i := range inserts {
			args = append(args, out[i].ID, out[i].Organization, out[i].Name)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(updates) > 0 {
		stmt := `
			WITH mydata(id, organization, name) AS (VALUES ` + valuesClause(len(updates), 3) + `)
			UPDATE events
			SET organization = mydata.organization, name = mydata.name
			FROM mydata
			WHERE events.id = mydata.id
		`
		args := make([]any, 0, len(updates)*3)
		for _, i := range updates {
			args = append(args, out[i].ID, out[i].Organization, out[i].Name)
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

// QueryEvents returns events matching the clause, or all rows when the
// clause is nil.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryEvents(ctx context.Context, clause query.Clause) ([]model.Event, error) {
	stmt := "SELECT id, organization, name FROM events"
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

	var events []model.Event
	for rows.Next() {
		var event model.Event
		if err := rows.Scan(&event.ID, &event.Organization, &event.Name); err != nil {
			return nil, NewFetchError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if events == nil {
		events = []model.Event{}
	}

	return events, nil
}

// DeleteEvents removes events by id after validating every id exists.
// Empty input is a no-op success.
//
// An event still referenced by registrations or schema items cannot be
// deleted; remove those through their own stores first.
func (s *Store) DeleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "events", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM events WHERE " + equalsAnyClause("id", len(ids))
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
