package authgate

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config defines every tunable of the engine. Load it once, pass it to
// [Builder.WithConfig], and treat it as immutable afterwards; no component
// reads ambient process state at runtime.
type Config struct {
	Tokens       TokenConfig
	Password     PasswordConfig
	Refresh      RefreshConfig
	BruteForce   BruteForceConfig
	MFA          MFAConfig
	Verification LinkConfig
	Reset        LinkConfig
	Account      AccountConfig
	Cookies      CookieConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds the shared HS256 signing secret and the lifetimes of the
// two signed token kinds.
type TokenConfig struct {
	Secret        []byte
	AccessTTL     time.Duration
	MFAPendingTTL time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig tunes the bcrypt cost and the minimum accepted password
// length (enforced at registration and reset, not at login).
type PasswordConfig struct {
	BcryptCost int
	MinLength  int
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig holds the refresh-token lifetime.
type RefreshConfig struct {
	TTL time.Duration
}

/*
====================================
BRUTE FORCE CONFIG
====================================
*/

// BruteForceConfig holds the two counter ceilings and sliding windows, plus
// the single documented fail-open switch for counter-store outages.
type BruteForceConfig struct {
	UsernameLimit  int
	UsernameWindow time.Duration
	IPLimit        int
	IPWindow       time.Duration
	FailOpen       bool
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig tunes TOTP generation and the re-challenge grace window.
type MFAConfig struct {
	Issuer      string
	Digits      int
	Period      int
	Skew        int
	GraceWindow time.Duration
}

/*
====================================
LINK TOKEN CONFIG
====================================
*/

// LinkConfig covers one single-use link-token kind (email verification or
// password reset): its lifetime and the path fragment the mailer embeds.
type LinkConfig struct {
	TTL      time.Duration
	LinkPath string
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig holds registration defaults.
type AccountConfig struct {
	DefaultRole       string
	MinUsernameLength int
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes how the session bundle is delivered as cookies.
// Max-ages follow the token TTLs; the access cookie value carries the
// "Bearer " transport prefix.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	SameSite    http.SameSite
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns production defaults. The signing secret is the one
// field with no default; Build fails without it.
func DefaultConfig() Config {
	return Config{
		Tokens: TokenConfig{
			AccessTTL:     30 * time.Minute,
			MFAPendingTTL: 5 * time.Minute,
			Issuer:        "platewise",
		},
		Password: PasswordConfig{
			BcryptCost: 0, // bcrypt library default
			MinLength:  6,
		},
		Refresh: RefreshConfig{
			TTL: 7 * 24 * time.Hour,
		},
		BruteForce: BruteForceConfig{
			UsernameLimit:  5,
			UsernameWindow: 600 * time.Second,
			IPLimit:        10,
			IPWindow:       300 * time.Second,
		},
		MFA: MFAConfig{
			Issuer:      "Platewise",
			Digits:      6,
			Period:      30,
			Skew:        1,
			GraceWindow: 7 * 24 * time.Hour,
		},
		Verification: LinkConfig{
			TTL:      30 * time.Minute,
			LinkPath: "/verify-email",
		},
		Reset: LinkConfig{
			TTL:      30 * time.Minute,
			LinkPath: "/reset-password",
		},
		Account: AccountConfig{
			DefaultRole:       "user",
			MinUsernameLength: 3,
		},
		Cookies: CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			Path:        "/",
			Secure:      true,
			SameSite:    http.SameSiteStrictMode,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c Config) validate() error {
	if len(c.Tokens.Secret) == 0 {
		return errors.New("signing secret is required")
	}
	if c.Tokens.AccessTTL <= 0 || c.Tokens.MFAPendingTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Refresh.TTL <= 0 {
		return errors.New("refresh TTL must be positive")
	}
	if c.BruteForce.UsernameLimit <= 0 || c.BruteForce.IPLimit <= 0 {
		return errors.New("brute-force ceilings must be positive")
	}
	if c.BruteForce.UsernameWindow <= 0 || c.BruteForce.IPWindow <= 0 {
		return errors.New("brute-force windows must be positive")
	}
	if c.MFA.Digits < 6 || c.MFA.Digits > 10 {
		return errors.New("mfa digits must be between 6 and 10")
	}
	if c.MFA.Period <= 0 || c.MFA.Skew < 0 {
		return errors.New("invalid mfa period or skew")
	}
	if c.MFA.GraceWindow < 0 {
		return errors.New("mfa grace window must not be negative")
	}
	if c.Verification.TTL <= 0 || c.Reset.TTL <= 0 {
		return errors.New("link token TTLs must be positive")
	}
	if c.Password.MinLength <= 0 {
		return errors.New("password minimum length must be positive")
	}
	return nil
}

type envSpec struct {
	SecretKey      string        `envconfig:"AUTH_SECRET_KEY" required:"true"`
	AccessTTL      time.Duration `envconfig:"AUTH_ACCESS_TTL" default:"30m"`
	MFAPendingTTL  time.Duration `envconfig:"AUTH_MFA_PENDING_TTL" default:"5m"`
	RefreshTTL     time.Duration `envconfig:"AUTH_REFRESH_TTL" default:"168h"`
	UsernameLimit  int           `envconfig:"AUTH_BF_USERNAME_LIMIT" default:"5"`
	UsernameWindow time.Duration `envconfig:"AUTH_BF_USERNAME_WINDOW" default:"10m"`
	IPLimit        int           `envconfig:"AUTH_BF_IP_LIMIT" default:"10"`
	IPWindow       time.Duration `envconfig:"AUTH_BF_IP_WINDOW" default:"5m"`
	FailOpen       bool          `envconfig:"AUTH_BF_FAIL_OPEN" default:"false"`
	MFAGraceWindow time.Duration `envconfig:"AUTH_MFA_GRACE_WINDOW" default:"168h"`
	MFAIssuer      string        `envconfig:"AUTH_MFA_ISSUER" default:"Platewise"`
	VerifyTTL      time.Duration `envconfig:"AUTH_VERIFICATION_TTL" default:"30m"`
	ResetTTL       time.Duration `envconfig:"AUTH_RESET_TTL" default:"30m"`
	CookieSecure   bool          `envconfig:"AUTH_COOKIE_SECURE" default:"true"`
	CookieSameSite string        `envconfig:"AUTH_COOKIE_SAMESITE" default:"strict"`
	CookieDomain   string        `envconfig:"AUTH_COOKIE_DOMAIN" default:""`
}

// ConfigFromEnv loads deployment configuration from AUTH_* environment
// variables on top of [DefaultConfig]. AUTH_SECRET_KEY is mandatory.
func ConfigFromEnv() (Config, error) {
	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Tokens.Secret = []byte(spec.SecretKey)
	cfg.Tokens.AccessTTL = spec.AccessTTL
	cfg.Tokens.MFAPendingTTL = spec.MFAPendingTTL
	cfg.Refresh.TTL = spec.RefreshTTL
	cfg.BruteForce.UsernameLimit = spec.UsernameLimit
	cfg.BruteForce.UsernameWindow = spec.UsernameWindow
	cfg.BruteForce.IPLimit = spec.IPLimit
	cfg.BruteForce.IPWindow = spec.IPWindow
	cfg.BruteForce.FailOpen = spec.FailOpen
	cfg.MFA.GraceWindow = spec.MFAGraceWindow
	cfg.MFA.Issuer = spec.MFAIssuer
	cfg.Verification.TTL = spec.VerifyTTL
	cfg.Reset.TTL = spec.ResetTTL
	cfg.Cookies.Secure = spec.CookieSecure
	cfg.Cookies.Domain = spec.CookieDomain

	switch strings.ToLower(spec.CookieSameSite) {
	case "", "strict":
		cfg.Cookies.SameSite = http.SameSiteStrictMode
	case "lax":
		cfg.Cookies.SameSite = http.SameSiteLaxMode
	case "none":
		cfg.Cookies.SameSite = http.SameSiteNoneMode
	default:
		return Config{}, errors.New("AUTH_COOKIE_SAMESITE must be strict, lax, or none")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
