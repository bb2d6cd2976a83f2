package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

const (
	MinPasswordLength = 1
	// MaxPasswordLength is bcrypt's input limit; longer inputs are rejected rather than truncated.
	MaxPasswordLength = 72
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// BcryptHasher salts every hash and compares in constant time.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost, falling back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash hashes a plaintext password with the configured cost.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hashed. Malformed hashes never match.
func (h *BcryptHasher) Verify(plain, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// ValidatePassword enforces the length bounds accepted by the hasher.
func ValidatePassword(plain string) error {
	switch {
	case len(plain) < MinPasswordLength:
		return domain.Invalid("password", "is required")
	case len(plain) > MaxPasswordLength:
		return domain.Invalid("password", "must be at most 72 bytes")
	}
	return nil
}
