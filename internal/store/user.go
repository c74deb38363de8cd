package store

import (
	"context"
	"database/sql"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/query"
)

// UserIDEquals filters users by exact id.
func UserIDEquals(id string) query.Clause {
	return query.Equals{Column: "id", Value: id}
}

// UserIDNotEquals filters users excluding one id.
func UserIDNotEquals(id string) query.Clause {
	return query.NotEquals{Column: "id", Value: id}
}

// UserEmailEquals filters users by exact email.
func UserEmailEquals(email string) query.Clause {
	return query.Equals{Column: "email", Value: email}
}

// UserEmailNotEquals filters users excluding one email.
func UserEmailNotEquals(email string) query.Clause {
	return query.NotEquals{Column: "email", Value: email}
}

// passwordValue returns the password column value for a state: the hash
// for set, NULL for unset. Inserts treat unchanged as unset since there is
// no stored credential to keep; updates never call this for unchanged -
// their statement omits the column instead.
func passwordValue(state model.PasswordState) any {
	if set, ok := state.(model.PasswordSet); ok {
		return string(set)
	}
	return nil
}

// UpsertUsers inserts users with empty ids and updates the rest, in one
// transaction. Returned users keep submission order with generated ids
// filled in.
//
// An update whose password state is unchanged keeps the stored credential:
// updates are split into two bulk statements, one carrying the password
// column and one omitting it. Reads never return unchanged - see
// QueryUsers.
func (s *Store) UpsertUsers(ctx context.Context, users []model.User) ([]model.User, error) {
	if len(users) == 0 {
		return []model.User{}, nil
	}

	ids := make([]string, len(users))
	for i, user := range users {
		ids[i] = user.ID
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
			updateIDs = append(updateIDs, users[i].ID)
		}
		if err := idsInTable(ctx, tx, "users", updateIDs); err != nil {
			return nil, err
		}
	}

	// Updates split on the password state: unchanged rows must not touch
	// the stored credential column.
	var withPassword, withoutPassword []int
	for _, i := range updates {
		if _, ok := users[i].Password.(model.PasswordUnchanged); ok {
			withoutPassword = append(withoutPassword, i)
		} else {
			withPassword = append(withPassword, i)
		}
	}

	out := make([]model.User, len(users))
	copy(out, users)
	for _, i := range inserts {
		out[i].ID = s.ids.Generate()
	}

	if len(inserts) > 0 {
		stmt := "INSERT INTO users(id, email, password, display_name) VALUES " + valuesClause(len(inserts), 4)
		args := make([]any, 0, len(inserts)*4)
		for _, i := range inserts {
			args = append(args, out[i].ID, out[i].Email, passwordValue(out[i].Password), out[i].DisplayName)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewInsertionError(err)
		}
	}

	if len(withPassword) > 0 {
		stmt := `
			WITH mydata(id, email, password, display_name) AS (VALUES ` + valuesClause(len(withPassword), 4) + `)
			UPDATE users
			SET email = mydata.email,
			    password = mydata.password,
			    display_name = mydata.display_name
			FROM mydata
			WHERE users.id = mydata.id
		`
		args := make([]any, 0, len(withPassword)*4)
		for _, i := range withPassword {
			args = append(args, out[i].ID, out[i].Email, passwordValue(out[i].Password), out[i].DisplayName)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, NewUpdateError(err)
		}
	}

	if len(withoutPassword) > 0 {
		stmt := `
			WITH mydata(id, email, display_name) AS (VALUES ` + valuesClause(len(withoutPassword), 3) + `)
			UPDATE users
			SET email = mydata.email,
			    display_name = mydata.display_name
			FROM mydata
			WHERE users.id = mydata.id
		`
		args := make([]any, 0, len(withoutPassword)*3)
		for _, i := range withoutPassword {
			args = append(args, out[i].ID, out[i].Email, out[i].DisplayName)
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

// QueryUsers returns users matching the clause, or all rows when the
// clause is nil. Password states come back as set or unset only; the
// unchanged sentinel is write-only.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryUsers(ctx context.Context, clause query.Clause) ([]model.User, error) {
	stmt := "SELECT id, email, password, display_name FROM users"
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

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if users == nil {
		users = []model.User{}
	}

	return users, nil
}

// scanUser reads one user row, mapping a NULL password column to the
// unset state.
func scanUser(rows *sql.Rows) (model.User, error) {
	var user model.User
	var password sql.NullString
	if err := rows.Scan(&user.ID, &user.Email, &password, &user.DisplayName); err != nil {
		return model.User{}, NewFetchError(err)
	}

	if password.Valid {
		user.Password = model.PasswordSet(password.String)
	} else {
		user.Password = model.PasswordUnset{}
	}

	return user, nil
}

// DeleteUsers removes users by id after validating every id exists.
// Empty input is a no-op success.
func (s *Store) DeleteUsers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "users", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM users WHERE " + equalsAnyClause("id", len(ids))
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
