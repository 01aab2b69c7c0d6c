package authgate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/platewise/authgate/internal/rate"
	"github.com/platewise/authgate/jwt"
	"github.com/platewise/authgate/password"
	"github.com/platewise/authgate/refresh"
)

// Builder assembles an [Engine]. Construction is allocation-only: no I/O
// happens until the first Engine call after Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users        UserStore
	refreshStore refresh.TokenStore
	auditSink    AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the counter-store client backing the brute-force limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user repository.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithRefreshStore sets the refresh-token repository.
func (b *Builder) WithRefreshStore(store refresh.TokenStore) *Builder {
	b.refreshStore = store
	return b
}

// WithAuditSink sets the destination for security events. Without a sink,
// audit events go to a slog-backed default when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates configuration and dependencies and returns the Engine.
// A Builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}
	if b.refreshStore == nil {
		return nil, errors.New("refresh token store is required")
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret: b.config.Tokens.Secret,
		Issuer: b.config.Tokens.Issuer,
		Leeway: b.config.Tokens.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	refreshAdapter, err := refresh.NewStore(b.refreshStore, b.config.Refresh.TTL)
	if err != nil {
		return nil, err
	}

	limiter := rate.New(b.redis, rate.Config{
		UsernameLimit:  b.config.BruteForce.UsernameLimit,
		UsernameWindow: b.config.BruteForce.UsernameWindow,
		IPLimit:        b.config.BruteForce.IPLimit,
		IPWindow:       b.config.BruteForce.IPWindow,
		FailOpen:       b.config.BruteForce.FailOpen,
	})

	sink := b.auditSink
	if sink == nil && b.config.Audit.Enabled {
		sink = NewSlogSink(nil)
	}

	engine := &Engine{
		config:  b.config,
		users:   b.users,
		refresh: refreshAdapter,
		limiter: limiter,
		codec:   codec,
		hasher:  hasher,
		totp:    newTOTPManager(b.config.MFA),
		audit:   newAuditDispatcher(b.config.Audit, sink),
		metrics: NewMetrics(b.config.Metrics),
		now:     time.Now,
	}

	b.built = true
	return engine, nil
}
