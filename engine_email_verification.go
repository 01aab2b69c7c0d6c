package authgate

import (
	"context"
	"errors"

	"github.com/platewise/authgate/internal"
)

// RequestEmailVerification issues a fresh verification token for the account
// behind email, replacing any outstanding one. The result is
// enumeration-safe: an unknown address and an already-verified account both
// yield a zero LinkRequest with a nil error, so the caller's response cannot
// leak whether the address exists.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) (*LinkRequest, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventEmailVerificationRequest, true, "", nil,
				map[string]string{"outcome": "unknown_email"})
			return &LinkRequest{}, nil
		}
		return nil, backendErr(err)
	}
	if user.Verified {
		e.emitAudit(ctx, auditEventEmailVerificationRequest, true, user.ID, nil,
			map[string]string{"outcome": "already_verified"})
		return &LinkRequest{}, nil
	}

	token, err := internal.NewLinkToken()
	if err != nil {
		return nil, backendErr(err)
	}

	user.setVerificationToken(token, e.now().Add(e.config.Verification.TTL))
	if err := e.users.Update(ctx, user); err != nil {
		return nil, backendErr(err)
	}

	e.metricInc(MetricVerificationRequest)
	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, user.ID, nil, nil)
	return &LinkRequest{
		Token: token,
		Link:  e.config.Verification.LinkPath + "?token=" + token,
	}, nil
}

// ConfirmEmail consumes a verification token and marks the account verified.
// The token is single-use: consumption clears it in the same step, so a
// replay or a concurrent duplicate gets ErrTokenInvalid.
func (e *Engine) ConfirmEmail(ctx context.Context, token string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrTokenInvalid
	}

	user, err := e.users.ConsumeVerificationToken(ctx, token, e.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricVerificationFailure)
			e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", ErrTokenInvalid, nil)
			return "", ErrTokenInvalid
		}
		return "", backendErr(err)
	}

	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, user.ID, nil, nil)
	return user.ID, nil
}
