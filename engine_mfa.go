package authgate

import (
	"context"
	"errors"

	"github.com/platewise/authgate/jwt"
)

// challengeRequired reports whether a login must present a second factor:
// TOTP is enabled and the last verification is absent or older than the
// grace window.
func (e *Engine) challengeRequired(user *UserRecord) bool {
	if !user.TOTPEnabled {
		return false
	}
	if user.TOTPLastVerified.IsZero() {
		return true
	}
	return e.now().Sub(user.TOTPLastVerified) > e.config.MFA.GraceWindow
}

// BeginTOTPSetup provisions a fresh secret for a user who has not enabled
// TOTP yet and returns the base32 secret plus the otpauth:// enrollment URI.
// The secret is stored but inert until [Engine.ConfirmTOTPSetup] sees a valid
// code; calling this again before confirmation replaces the pending secret.
func (e *Engine) BeginTOTPSetup(ctx context.Context, userID string) (*TOTPEnrollment, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, backendErr(err)
	}
	if user.TOTPEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	raw, encoded, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, backendErr(err)
	}

	user.TOTPSecret = raw
	if err := e.users.Update(ctx, user); err != nil {
		return nil, backendErr(err)
	}

	e.emitAudit(ctx, auditEventTOTPSetupRequested, true, user.ID, nil, nil)
	return &TOTPEnrollment{
		Secret: encoded,
		URI:    e.totp.ProvisionURI(encoded, user.Username),
	}, nil
}

// ConfirmTOTPSetup verifies the first code against the pending secret and
// flips the user to Enabled, stamping the grace window. One-way: once
// enabled, setup cannot be re-entered.
func (e *Engine) ConfirmTOTPSetup(ctx context.Context, userID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return backendErr(err)
	}
	if user.TOTPEnabled {
		return ErrMFAAlreadyEnabled
	}
	if len(user.TOTPSecret) == 0 {
		return ErrMFANotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TOTPSecret, code, e.now())
	if err != nil {
		return backendErr(err)
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, user.ID, ErrMFAInvalid, map[string]string{"stage": "setup"})
		return ErrMFAInvalid
	}

	user.TOTPEnabled = true
	user.TOTPLastVerified = e.now()
	if err := e.users.Update(ctx, user); err != nil {
		return backendErr(err)
	}

	e.metricInc(MetricTOTPEnabled)
	e.emitAudit(ctx, auditEventTOTPEnabled, true, user.ID, nil, nil)
	return nil
}

// CompleteMFALogin finishes a login that stopped at the second-factor gate.
// pendingToken must be the typ="mfa" token returned by Login; an access token
// presented here is rejected the same as any bad token.
func (e *Engine) CompleteMFALogin(ctx context.Context, pendingToken, code string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.codec.Verify(pendingToken)
	if err != nil {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != jwt.TypeMFAPending {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, claims.UID, ErrTokenInvalid, map[string]string{"reason": "token_type"})
		return nil, ErrTokenInvalid
	}

	user, err := e.users.FindByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, backendErr(err)
	}
	if !user.TOTPEnabled || len(user.TOTPSecret) == 0 {
		return nil, ErrMFANotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TOTPSecret, code, e.now())
	if err != nil {
		return nil, backendErr(err)
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, user.ID, ErrMFAInvalid, nil)
		return nil, ErrMFAInvalid
	}

	user.TOTPLastVerified = e.now()
	if err := e.users.Update(ctx, user); err != nil {
		return nil, backendErr(err)
	}

	result, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricMFASuccess)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventMFASuccess, true, user.ID, nil, nil)
	return result, nil
}

// VerifyTOTPCode checks a code for an already-enabled user outside the login
// flow (step-up confirmation for sensitive operations) and refreshes the
// grace window on success.
func (e *Engine) VerifyTOTPCode(ctx context.Context, userID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return backendErr(err)
	}
	if !user.TOTPEnabled || len(user.TOTPSecret) == 0 {
		return ErrMFANotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TOTPSecret, code, e.now())
	if err != nil {
		return backendErr(err)
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, user.ID, ErrMFAInvalid, nil)
		return ErrMFAInvalid
	}

	user.TOTPLastVerified = e.now()
	if err := e.users.Update(ctx, user); err != nil {
		return backendErr(err)
	}

	e.metricInc(MetricMFASuccess)
	e.emitAudit(ctx, auditEventMFASuccess, true, user.ID, nil, nil)
	return nil
}
