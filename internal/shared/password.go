package shared

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// dummyHash is compared against when a user lookup misses so failed logins cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cadence-dummy-password"), bcrypt.DefaultCost)

// HashPassword derives a bcrypt hash from a raw password.
func HashPassword(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(raw) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether raw matches hash. Malformed hashes report false.
func CheckPassword(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// BurnPasswordCheck performs a throwaway comparison.
func BurnPasswordCheck(raw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(raw))
}
