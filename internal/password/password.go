// Package password hashes user credentials with argon2id and scores
// plain-text passwords against the strength requirements enforced at user
// creation. Stores only ever see the encoded hash.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// MinLength is the minimum password length in bytes.
const MinLength = 8

// argon2id parameters for newly hashed passwords. Verification reads the
// parameters out of the encoded hash instead, so these can change without
// invalidating stored credentials.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
	saltLength   = 16
	keyLength    = 32
)

var errMalformedHash = errors.New("malformed password hash")

// Hash derives an argon2id hash of plain with a fresh random salt and
// returns it in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
func Hash(plain string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, argonTime, argonMemory, argonThreads, keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether plain matches the encoded hash. The comparison is
// constant-time; an error means the encoded string itself is unusable, not
// that the password is wrong.
func Verify(plain, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(plain), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeHash(encoded string) (hashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return hashParams{}, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return hashParams{}, nil, nil, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}
	if version != argon2.Version {
		return hashParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params hashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return hashParams{}, nil, nil, errMalformedHash
	}

	return params, salt, key, nil
}

// Validation reports which strength requirements a password meets.
type Validation struct {
	HasUppercase bool
	HasLowercase bool
	HasNumber    bool
	HasSpecial   bool
	IsLongEnough bool
}

// Check scores a plain-text password. Special means any rune that is
// neither a letter nor a number; length counts bytes.
func Check(plain string) Validation {
	var v Validation
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			v.HasUppercase = true
		case unicode.IsLower(r):
			v.HasLowercase = true
		case unicode.IsNumber(r):
			v.HasNumber = true
		case !unicode.IsLetter(r):
			v.HasSpecial = true
		}
	}
	v.IsLongEnough = len(plain) >= MinLength
	return v
}

// OK reports whether every requirement is met.
func (v Validation) OK() bool {
	return v.HasUppercase && v.HasLowercase && v.HasNumber && v.HasSpecial && v.IsLongEnough
}
