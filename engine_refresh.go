package authgate

import (
	"context"
	"errors"

	"github.com/platewise/authgate/jwt"
	"github.com/platewise/authgate/refresh"
)

// Refresh rotates refreshToken and mints a new access token for its owner.
// The presented token is dead afterwards whatever the outcome; on
// [ErrTokenInvalid] the whole session is dead and the caller must
// re-authenticate with a password.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	userID, rotated, err := e.refresh.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrInvalid) {
			e.metricInc(MetricRefreshInvalid)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrTokenInvalid, nil)
			return nil, ErrTokenInvalid
		}
		return nil, backendErr(err)
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Owner row is gone; kill the freshly rotated token too.
			_ = e.refresh.Revoke(ctx, rotated)
			return nil, ErrTokenInvalid
		}
		return nil, backendErr(err)
	}

	access, err := e.codec.Mint(user.ID, jwt.TypeAccess, e.config.Tokens.AccessTTL)
	if err != nil {
		return nil, backendErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, nil, nil)
	return &LoginResult{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: rotated,
	}, nil
}

// Logout revokes refreshToken. Idempotent: revoking an unknown or already
// revoked token still succeeds. Only a backend fault is an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if err := e.refresh.Revoke(ctx, refreshToken); err != nil {
		return backendErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}

// SweepExpiredRefreshTokens deletes refresh rows past their expiry and
// reports the count. Safe to run opportunistically from a host cron.
func (e *Engine) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	n, err := e.refresh.SweepExpired(ctx)
	if err != nil {
		return 0, backendErr(err)
	}
	return n, nil
}
