package internaldefs

import (
	"github.com/platewise/authgate"
)

// CounterDef binds one engine counter to its exported metric name.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// AuditDroppedName is the metric for audit events discarded under
// backpressure; it sits outside the counter snapshot.
const AuditDroppedName = "authgate_audit_dropped_total"

// CounterDefs lists every engine counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginRateLimited, Name: "authgate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authgate.MetricLoginUnverified, Name: "authgate_login_unverified_total", Help: "Logins rejected for unverified email."},
	{ID: authgate.MetricMFARequired, Name: "authgate_mfa_required_total", Help: "Login flows stopped at the second-factor gate."},
	{ID: authgate.MetricMFASuccess, Name: "authgate_mfa_success_total", Help: "Successful TOTP verifications."},
	{ID: authgate.MetricMFAFailure, Name: "authgate_mfa_failure_total", Help: "Failed TOTP verifications."},
	{ID: authgate.MetricTOTPEnabled, Name: "authgate_totp_enabled_total", Help: "Completed TOTP enrollments."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authgate.MetricRefreshInvalid, Name: "authgate_refresh_invalid_total", Help: "Refresh attempts with an invalid token."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: authgate.MetricAccountCreated, Name: "authgate_account_created_total", Help: "Successful registrations."},
	{ID: authgate.MetricAccountDuplicate, Name: "authgate_account_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: authgate.MetricVerificationRequest, Name: "authgate_email_verification_request_total", Help: "Email verification requests."},
	{ID: authgate.MetricVerificationSuccess, Name: "authgate_email_verification_success_total", Help: "Successful email verifications."},
	{ID: authgate.MetricVerificationFailure, Name: "authgate_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: authgate.MetricResetRequest, Name: "authgate_password_reset_request_total", Help: "Password reset requests."},
	{ID: authgate.MetricResetSuccess, Name: "authgate_password_reset_success_total", Help: "Successful password resets."},
	{ID: authgate.MetricResetFailure, Name: "authgate_password_reset_failure_total", Help: "Failed password resets."},
}
