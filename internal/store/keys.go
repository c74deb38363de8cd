package store

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

// InsertKey stores a signing key and returns it with a generated id. Keys
// are append-only; the submitted id is ignored and there is no update path.
func (s *Store) InsertKey(ctx context.Context, key model.SigningKey) (model.SigningKey, error) {
	key.ID = s.ids.Generate()

	stmt := "INSERT INTO keys(id, created_at, key_material) VALUES (?, ?, ?)"
	seed := key.Key.Seed()
	if _, err := s.db.ExecContext(ctx, stmt, key.ID, key.CreatedAt.Unix(), seed); err != nil {
		return model.SigningKey{}, NewInsertionError(err)
	}

	return key, nil
}

// ListKeys returns the keys with the given ids, or every key when ids is
// empty.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListKeys(ctx context.Context, ids []string) ([]model.SigningKey, error) {
	stmt := "SELECT id, created_at, key_material FROM keys"
	var args []any
	if len(ids) > 0 {
		stmt += " WHERE " + equalsAnyClause("id", len(ids))
		args = make([]any, 0, len(ids))
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewFetchError(err)
	}
	defer rows.Close()

	var keys []model.SigningKey
	for rows.Next() {
		var id string
		var createdAt int64
		var seed []byte
		if err := rows.Scan(&id, &createdAt, &seed); err != nil {
			return nil, NewFetchError(err)
		}
		key, err := keyFromRow(id, createdAt, seed)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, NewFetchError(err)
	}

	// Return empty slice instead of nil
	if keys == nil {
		keys = []model.SigningKey{}
	}

	return keys, nil
}

// NewestKey returns the most recently created signing key. When no keys
// exist the aggregate row carries NULLs and the call fails with a fetch
// error; callers gate on HasKeys first.
func (s *Store) NewestKey(ctx context.Context) (model.SigningKey, error) {
	stmt := "SELECT id, key_material, MAX(created_at) AS created_at FROM keys"

	var id string
	var seed []byte
	var createdAt int64
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&id, &seed, &createdAt); err != nil {
		return model.SigningKey{}, NewFetchError(err)
	}

	return keyFromRow(id, createdAt, seed)
}

// HasKeys reports whether any signing key is stored.
func (s *Store) HasKeys(ctx context.Context) (bool, error) {
	var has bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM keys)").Scan(&has); err != nil {
		return false, NewFetchError(err)
	}
	return has, nil
}

// DeleteKeys removes keys by id after validating every id exists. Empty
// input is a no-op success.
func (s *Store) DeleteKeys(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := idsInTable(ctx, tx, "keys", ids); err != nil {
		return err
	}

	stmt := "DELETE FROM keys WHERE " + equalsAnyClause("id", len(ids))
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

// keyFromRow rebuilds a signing key from its stored columns. The material
// column must hold exactly the Ed25519 seed.
func keyFromRow(id string, createdAt int64, seed []byte) (model.SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return model.SigningKey{}, NewColumnParseError("key_material")
	}
	return model.SigningKey{
		ID:        id,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		Key:       ed25519.NewKeyFromSeed(seed),
	}, nil
}
