// Package keyring manages the server's Ed25519 signing keys on top of the
// key store: rotation, lookup of the current signing key, and lookup of
// verification keys by id.
package keyring

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// KeyStore is the slice of the store the manager needs.
type KeyStore interface {
	InsertKey(ctx context.Context, key model.SigningKey) (model.SigningKey, error)
	ListKeys(ctx context.Context, ids []string) ([]model.SigningKey, error)
	NewestKey(ctx context.Context) (model.SigningKey, error)
	DeleteKeys(ctx context.Context, ids []string) error
}

// Manager rotates and resolves signing keys.
type Manager struct {
	store KeyStore
	now   func() time.Time
}

// New returns a manager on the wall clock.
func New(store KeyStore) *Manager {
	return NewWithClock(store, time.Now)
}

// NewWithClock returns a manager with an injected clock, for deterministic
// creation timestamps in tests.
func NewWithClock(store KeyStore, now func() time.Time) *Manager {
	return &Manager{store: store, now: now}
}

// Rotate generates and stores a fresh signing key and returns it. With
// clear set, every key stored before this call is deleted afterwards,
// invalidating anything signed with them.
//
// The prior key ids are collected before the insert so the fresh key can
// never land in the deletion set.
func (m *Manager) Rotate(ctx context.Context, clear bool) (model.SigningKey, error) {
	var stale []string
	if clear {
		keys, err := m.store.ListKeys(ctx, nil)
		if err != nil {
			return model.SigningKey{}, err
		}
		for _, key := range keys {
			stale = append(stale, key.ID)
		}
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return model.SigningKey{}, fmt.Errorf("generating signing key: %w", err)
	}

	// Creation time truncates to seconds, matching storage resolution.
	key, err := m.store.InsertKey(ctx, model.SigningKey{
		CreatedAt: m.now().UTC().Truncate(time.Second),
		Key:       priv,
	})
	if err != nil {
		return model.SigningKey{}, err
	}

	if clear {
		if err := m.store.DeleteKeys(ctx, stale); err != nil {
			return model.SigningKey{}, err
		}
	}

	return key, nil
}

// SigningKey returns the key new material should be signed with: the most
// recently created one.
func (m *Manager) SigningKey(ctx context.Context) (model.SigningKey, error) {
	return m.store.NewestKey(ctx)
}

// VerifyingKey returns the public half of the stored key with the given
// id. Signatures by rotated-but-not-cleared keys stay verifiable this way.
func (m *Manager) VerifyingKey(ctx context.Context, keyID string) (ed25519.PublicKey, error) {
	keys, err := m.store.ListKeys(ctx, []string{keyID})
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, store.NewIDDoesNotExistError(keyID)
	}
	return keys[0].Key.Public().(ed25519.PublicKey), nil
}
