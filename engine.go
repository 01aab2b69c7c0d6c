package authgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/platewise/authgate/internal/rate"
	"github.com/platewise/authgate/jwt"
	"github.com/platewise/authgate/password"
	"github.com/platewise/authgate/refresh"
)

// Engine is the session orchestrator: it composes the limiter, hasher, token
// codec, refresh adapter, and TOTP manager into login, refresh, logout, MFA,
// verification, and reset flows.
//
// Engine instances are built once through [Builder.Build] and are immutable
// and safe for concurrent use afterwards.
type Engine struct {
	config  Config
	users   UserStore
	refresh *refresh.Store
	limiter *rate.Limiter
	codec   *jwt.Codec
	hasher  *password.Hasher
	totp    *totpManager
	audit   *auditDispatcher
	metrics *Metrics

	// now is swapped in tests to drive expiry and grace-window logic.
	now func() time.Time
}

// Close stops the audit dispatcher after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports events discarded because the audit buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.refresh == nil || e.codec == nil ||
		e.hasher == nil || e.limiter == nil || e.totp == nil {
		return ErrEngineNotReady
	}
	return nil
}

// backendErr wraps an unexpected store failure as the operational fault.
func backendErr(err error) error {
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
