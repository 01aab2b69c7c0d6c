package authgate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/platewise/authgate/internal"
)

// normalizeEmail is applied to every email before lookup or storage so that
// address comparison is case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and issues its first verification
// token. The returned link fragment is what the host embeds in the
// verification email; authgate never sends mail itself.
func (e *Engine) Register(ctx context.Context, username, email, pw string) (*RegistrationResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if len(username) < e.config.Account.MinUsernameLength {
		return nil, errors.New("username too short")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("invalid email address")
	}
	if len(pw) < e.config.Password.MinLength {
		return nil, ErrPasswordPolicy
	}

	hash, err := e.hasher.Hash(pw)
	if err != nil {
		return nil, ErrPasswordPolicy
	}

	token, err := internal.NewLinkToken()
	if err != nil {
		return nil, backendErr(err)
	}

	user := &UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         e.config.Account.DefaultRole,
	}
	user.setVerificationToken(token, e.now().Add(e.config.Verification.TTL))

	if err := e.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricAccountDuplicate)
			e.emitAudit(ctx, auditEventAccountDuplicate, false, "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, backendErr(err)
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, user.ID, nil, nil)
	return &RegistrationResult{
		UserID:            user.ID,
		VerificationToken: token,
		VerificationLink:  e.config.Verification.LinkPath + "?token=" + token,
	}, nil
}
