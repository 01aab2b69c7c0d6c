package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently ignores input past 72 bytes; reject instead.
const maxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
// Hasher instances are immutable and safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Cost 0 selects the
// library default.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{cost: cost}, nil
}

// Hash derives a salted digest of pw.
func (h *Hasher) Hash(pw string) (string, error) {
	if len(pw) == 0 {
		return "", errors.New("empty password")
	}
	if len(pw) > maxPasswordBytes {
		return "", errors.New("password exceeds 72 bytes")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(pw), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether pw matches digest. Any failure (mismatch, oversized
// input, corrupt digest) is false, never an error.
func (h *Hasher) Verify(pw, digest string) bool {
	if len(pw) == 0 || len(pw) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(pw)) == nil
}
