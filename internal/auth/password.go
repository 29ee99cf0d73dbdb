package auth

import (
	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// HashPassword hashes a plaintext password using the Argon2id algorithm
// with the default parameters. An empty plaintext is rejected with
// ErrEmptyPassword; any hashing backend failure is surfaced, never masked.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return hashedPassword, nil
}

// VerifyPassword verifies a plaintext password against a stored Argon2id
// hash using constant-time comparison. Every failure mode, including a
// malformed digest or an internal error, reads as "does not match": callers
// can not tell a wrong password from a broken hash, so verification fails
// closed.
func VerifyPassword(password, passwordHash string) bool {
	if password == "" || passwordHash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, passwordHash)
	if err != nil {
		log.Error().Err(err).Msg("failed to verify password")
		return false
	}

	return match
}
