package authgate

import (
	"context"
	"time"
)

// UserRecord is the persisted identity record the engine reads and mutates
// through [UserStore]. Storage owns the row; the engine holds it only for the
// duration of a request.
//
// Link-token invariant: a token string and its expiry are either both set or
// both zero. Use the setter/clearer methods rather than assigning the fields
// directly.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool

	VerificationToken     string
	VerificationExpiresAt time.Time
	ResetToken            string
	ResetExpiresAt        time.Time

	TOTPSecret       []byte
	TOTPEnabled      bool
	TOTPLastVerified time.Time
}

func (u *UserRecord) setVerificationToken(token string, expiresAt time.Time) {
	u.VerificationToken = token
	u.VerificationExpiresAt = expiresAt
}

func (u *UserRecord) setResetToken(token string, expiresAt time.Time) {
	u.ResetToken = token
	u.ResetExpiresAt = expiresAt
}

// UserStore is the narrow repository interface the engine drives. Every
// method returns [ErrUserNotFound] (or wraps it) when no row matches, and any
// other error is treated as a backend fault.
//
// ConsumeVerificationToken and ConsumeResetToken must be atomic: exactly one
// concurrent call per token observes the row, and the token plus its expiry
// are cleared in the same step that applies the effect. Column-level
// conditional updates satisfy this (see package postgres).
type UserStore interface {
	Create(ctx context.Context, user *UserRecord) error
	Update(ctx context.Context, user *UserRecord) error
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)

	// ConsumeVerificationToken marks the matching, unexpired row verified and
	// clears the token pair. ErrUserNotFound when nothing matched.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*UserRecord, error)
	// ConsumeResetToken swaps in newHash and clears the token pair on the
	// matching, unexpired row. ErrUserNotFound when nothing matched.
	ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (*UserRecord, error)
}

// LoginResult is the outcome of Login, CompleteMFALogin, and Refresh.
//
// When MFARequired is set, the attempt stopped at the second-factor gate:
// MFAToken holds a short-lived pending token and the credential fields are
// empty. Otherwise AccessToken and RefreshToken carry the session bundle.
type LoginResult struct {
	UserID string
	Role   string

	AccessToken  string
	RefreshToken string

	MFARequired bool
	MFAToken    string
}

// AuthResult is returned by [Engine.Validate] for a good access token.
type AuthResult struct {
	UserID    string
	ExpiresAt time.Time
}

// RegistrationResult carries the new account id and the verification link
// material the host hands to its mailer. The engine never sends email.
type RegistrationResult struct {
	UserID            string
	VerificationToken string
	VerificationLink  string
}

// LinkRequest is the enumeration-safe result of RequestEmailVerification and
// RequestPasswordReset. A zero Token means there is nothing to send (unknown
// address, or verification already done) and the caller must respond exactly
// as if a link had been issued.
type LinkRequest struct {
	Token string
	Link  string
}

// TOTPEnrollment is returned by BeginTOTPSetup: the base32 secret and an
// otpauth:// URI renderable as a QR code.
type TOTPEnrollment struct {
	Secret string
	URI    string
}
