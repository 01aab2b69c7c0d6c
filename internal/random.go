package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const linkTokenRawSize = 32

// NewLinkToken returns a URL-safe single-use token for email verification and
// password reset links: 32 bytes of randomness, base64url without padding.
func NewLinkToken() (string, error) {
	var raw [linkTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
