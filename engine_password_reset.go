package authgate

import (
	"context"
	"errors"

	"github.com/platewise/authgate/internal"
)

// RequestPasswordReset issues a fresh reset token for the account behind
// email, replacing any outstanding one. Like RequestEmailVerification the
// result is enumeration-safe: an unknown address yields a zero LinkRequest
// with a nil error.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*LinkRequest, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", nil,
				map[string]string{"outcome": "unknown_email"})
			return &LinkRequest{}, nil
		}
		return nil, backendErr(err)
	}

	token, err := internal.NewLinkToken()
	if err != nil {
		return nil, backendErr(err)
	}

	user.setResetToken(token, e.now().Add(e.config.Reset.TTL))
	if err := e.users.Update(ctx, user); err != nil {
		return nil, backendErr(err)
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, nil, nil)
	return &LinkRequest{
		Token: token,
		Link:  e.config.Reset.LinkPath + "?token=" + token,
	}, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// policy check and hashing happen before consumption so a weak password does
// not burn the token.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrTokenInvalid
	}
	if len(newPassword) < e.config.Password.MinLength {
		return "", ErrPasswordPolicy
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return "", ErrPasswordPolicy
	}

	user, err := e.users.ConsumeResetToken(ctx, token, hash, e.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrTokenInvalid, nil)
			return "", ErrTokenInvalid
		}
		return "", backendErr(err)
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, nil, nil)
	return user.ID, nil
}
