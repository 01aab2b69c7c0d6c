package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLimited is returned when either counter has reached its ceiling.
	ErrLimited = errors.New("too many failed attempts")
	// ErrUnavailable is returned when the counter store cannot be reached
	// and the limiter is configured to fail closed.
	ErrUnavailable = errors.New("counter store unavailable")
)

// Config holds limiter ceilings and windows.
type Config struct {
	UsernameLimit  int
	UsernameWindow time.Duration
	IPLimit        int
	IPWindow       time.Duration

	// FailOpen admits attempts when the counter store is down. Default is
	// fail closed: store failure rejects the attempt with ErrUnavailable.
	FailOpen bool
}

// Limiter tracks failed-login counters keyed by username and by source
// address in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, config: cfg}
}

func usernameKey(username string) string { return "bf:u:" + username }
func addressKey(ip string) string        { return "bf:ip:" + ip }

// Check gates one login attempt for the username/address pair. If either
// counter is at its ceiling the attempt is rejected before any password work;
// otherwise both counters are incremented and their windows re-armed.
func (l *Limiter) Check(ctx context.Context, username, ip string) error {
	over, err := l.atCeiling(ctx, usernameKey(username), l.config.UsernameLimit)
	if err != nil {
		return l.storeFailure(err)
	}
	if over {
		return ErrLimited
	}

	if ip != "" {
		over, err = l.atCeiling(ctx, addressKey(ip), l.config.IPLimit)
		if err != nil {
			return l.storeFailure(err)
		}
		if over {
			return ErrLimited
		}
	}

	if err := l.bump(ctx, usernameKey(username), l.config.UsernameWindow); err != nil {
		return l.storeFailure(err)
	}
	if ip != "" {
		if err := l.bump(ctx, addressKey(ip), l.config.IPWindow); err != nil {
			return l.storeFailure(err)
		}
	}

	return nil
}

// ResetUsername clears the username counter after a verified password match.
// The address counter is left to decay: shared NATs and proxies must not be
// fully reset by one user's success.
func (l *Limiter) ResetUsername(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, usernameKey(username)).Err(); err != nil {
		return l.storeFailure(err)
	}
	return nil
}

// Attempts reports the current username counter. Missing keys read as zero.
func (l *Limiter) Attempts(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, usernameKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) atCeiling(ctx context.Context, key string, ceiling int) (bool, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return count >= int64(ceiling), nil
}

func (l *Limiter) bump(ctx context.Context, key string, window time.Duration) error {
	if _, err := l.redis.Incr(ctx, key).Result(); err != nil {
		return err
	}
	// Re-arm on every hit: the window slides with the latest attempt.
	return l.redis.Expire(ctx, key, window).Err()
}

func (l *Limiter) storeFailure(err error) error {
	if l.config.FailOpen {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
