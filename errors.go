package authgate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials folds unknown-username and wrong-password into a
	// single outcome; callers never learn which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified rejects a login whose password matched but whose
	// address was never confirmed.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrLoginRateLimited rejects a login attempt before any password work
	// because a brute-force ceiling was reached.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrTokenInvalid covers refresh, verification, reset, and MFA-pending
	// tokens uniformly: absent, expired, malformed, and already-consumed all
	// look the same from outside.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrMFAInvalid rejects a six-digit code that does not match the stored
	// secret at the current time step.
	ErrMFAInvalid = errors.New("invalid mfa code")
	// ErrMFAAlreadyEnabled rejects re-entering TOTP setup once enabled.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrMFANotConfigured indicates a TOTP operation on a user with no
	// provisioned secret.
	ErrMFANotConfigured = errors.New("mfa not configured")
	// ErrAccountExists rejects registration of a taken username or email.
	ErrAccountExists = errors.New("account already exists")
	// ErrPasswordPolicy rejects a password below the configured minimum.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrUserNotFound is returned by UserStore implementations when no row
	// matches. The engine folds it before anything user-facing escapes.
	ErrUserNotFound = errors.New("user not found")
	// ErrBackendUnavailable is the operational fault: persistent store or
	// counter store unreachable. It is the only taxonomy member that maps to
	// a 5xx-class response rather than a security decision.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady guards calls on a nil or incompletely built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError carries a retry hint alongside the rate-limit outcome.
// errors.Is(err, ErrLoginRateLimited) matches it.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("login rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrLoginRateLimited
}
