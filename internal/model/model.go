package model

import (
	"crypto/ed25519"
	"time"
)

// Organization is a tenant. Organizations own events.
type Organization struct {
	ID   string
	Name string
}

// Event belongs to exactly one organization.
type Event struct {
	ID           string
	Organization string
	Name         string
}

// User is an operator or registrant account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Password    PasswordState
}

// PasswordState is the credential state carried on a User.
//
// This is a sealed interface - only types in this package implement it.
//
// States:
//   - PasswordSet: an already-hashed credential
//   - PasswordUnset: no credential stored
//   - PasswordUnchanged: write-only sentinel, keep the stored credential
//
// PasswordUnchanged never comes back from a read; stores return only
// PasswordSet or PasswordUnset.
type PasswordState interface {
	passwordState() // Marker method - seals interface to this package
}

// PasswordSet holds the hashed credential. Hashing happens upstream; stores
// treat the value as opaque.
type PasswordSet string

func (PasswordSet) passwordState() {}

// PasswordUnset means the user has no stored credential.
type PasswordUnset struct{}

func (PasswordUnset) passwordState() {}

// PasswordUnchanged instructs an update to leave the stored credential
// column untouched.
type PasswordUnchanged struct{}

func (PasswordUnchanged) passwordState() {}

// SigningKey is an Ed25519 key used to sign session tokens. Keys are
// append-only rows; rotation inserts a new key and optionally clears the
// old ones.
type SigningKey struct {
	ID        string
	CreatedAt time.Time
	Key       ed25519.PrivateKey
}
