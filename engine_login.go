package authgate

import (
	"context"
	"errors"

	"github.com/platewise/authgate/internal/rate"
	"github.com/platewise/authgate/jwt"
)

// Login runs the full password flow for one attempt: brute-force gate, hash
// verification, email-verified check, then either the session bundle or an
// MFA-pending token when a second factor is due.
//
// Attach the caller's source address with [WithClientIP] so the per-address
// counter applies. Unknown usernames and wrong passwords are
// indistinguishable ([ErrInvalidCredentials]).
func (e *Engine) Login(ctx context.Context, username, pw string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	ip := clientIPFromContext(ctx)

	if err := e.limiter.Check(ctx, username, ip); err != nil {
		if errors.Is(err, rate.ErrLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, nil)
			return nil, &RateLimitError{RetryAfter: e.config.BruteForce.UsernameWindow}
		}
		return nil, backendErr(err)
	}

	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, backendErr(err)
	}

	if !e.hasher.Verify(pw, user.PasswordHash) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	// The password matched, so this is not a guessing attack: clear the
	// username counter even if the verified check below still fails. The
	// address counter decays on its own.
	if err := e.limiter.ResetUsername(ctx, username); err != nil {
		return nil, backendErr(err)
	}

	if !user.Verified {
		e.metricInc(MetricLoginUnverified)
		e.emitAudit(ctx, auditEventLoginUnverified, false, user.ID, ErrEmailNotVerified, nil)
		return nil, ErrEmailNotVerified
	}

	if e.challengeRequired(user) {
		pending, err := e.codec.Mint(user.ID, jwt.TypeMFAPending, e.config.Tokens.MFAPendingTTL)
		if err != nil {
			return nil, backendErr(err)
		}
		e.metricInc(MetricMFARequired)
		e.emitAudit(ctx, auditEventMFARequired, true, user.ID, nil, nil)
		return &LoginResult{
			UserID:      user.ID,
			Role:        user.Role,
			MFARequired: true,
			MFAToken:    pending,
		}, nil
	}

	result, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)
	return result, nil
}

// issueSession mints the authenticated bundle: a short-lived access token and
// a persisted rotating refresh token.
func (e *Engine) issueSession(ctx context.Context, user *UserRecord) (*LoginResult, error) {
	access, err := e.codec.Mint(user.ID, jwt.TypeAccess, e.config.Tokens.AccessTTL)
	if err != nil {
		return nil, backendErr(err)
	}

	refreshToken, err := e.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, backendErr(err)
	}

	return &LoginResult{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refreshToken,
	}, nil
}
