package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginRateLimited         = "login_rate_limited"
	auditEventLoginUnverified          = "login_unverified"
	auditEventMFARequired              = "mfa_required"
	auditEventMFASuccess               = "mfa_success"
	auditEventMFAFailure               = "mfa_failure"
	auditEventTOTPSetupRequested       = "totp_setup_requested"
	auditEventTOTPEnabled              = "totp_enabled"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventLogout                   = "logout"
	auditEventAccountCreated           = "account_created"
	auditEventAccountDuplicate         = "account_duplicate"
	auditEventEmailVerificationRequest = "email_verification_request"
	auditEventEmailVerificationConfirm = "email_verification_confirm"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
)

type auditErrorCode string

const (
	auditErrInvalidCredentials auditErrorCode = "invalid_credentials"
	auditErrUnverified         auditErrorCode = "email_not_verified"
	auditErrRateLimited        auditErrorCode = "rate_limited"
	auditErrInvalidToken       auditErrorCode = "invalid_token"
	auditErrMFAInvalid         auditErrorCode = "mfa_invalid"
	auditErrMFANotConfigured   auditErrorCode = "mfa_not_configured"
	auditErrDuplicate          auditErrorCode = "duplicate"
	auditErrPasswordPolicy     auditErrorCode = "password_policy"
	auditErrUnavailable        auditErrorCode = "backend_unavailable"
	auditErrInternal           auditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := mapAuditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func mapAuditErrorCode(err error) auditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrUnverified
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrMFAInvalid):
		return auditErrMFAInvalid
	case errors.Is(err, ErrMFANotConfigured), errors.Is(err, ErrMFAAlreadyEnabled):
		return auditErrMFANotConfigured
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
