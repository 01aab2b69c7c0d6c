package authgate

import (
	"strings"

	"github.com/platewise/authgate/jwt"
)

const bearerPrefix = "Bearer "

// Validate checks a raw access token and returns the authenticated subject.
// The value may carry the "Bearer " transport prefix (Authorization header or
// the access cookie as written by [SessionCookies]); it is stripped before
// verification. A token of any other kind, including a pending MFA token,
// fails with ErrTokenInvalid.
func (e *Engine) Validate(raw string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	raw = strings.TrimPrefix(raw, bearerPrefix)

	claims, err := e.codec.Verify(raw)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != jwt.TypeAccess {
		return nil, ErrTokenInvalid
	}

	return &AuthResult{
		UserID:    claims.UID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
