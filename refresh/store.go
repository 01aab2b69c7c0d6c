package refresh

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const tokenRawSize = 48

var (
	// ErrInvalid covers every lookup miss: token never existed, expired, or
	// was already rotated. The caller cannot distinguish the cases.
	ErrInvalid = errors.New("invalid refresh token")
	// ErrUnavailable indicates the backing store could not be reached.
	ErrUnavailable = errors.New("refresh token store unavailable")
)

// Record is one persisted refresh token row.
type Record struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenStore is the narrow persistence interface the adapter drives.
// Implementations must make Delete conditional: it reports whether this call
// removed the row, so exactly one concurrent rotator can win.
type TokenStore interface {
	Create(ctx context.Context, rec *Record) error
	Find(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ErrNotFound is returned by [TokenStore.Find] when no row matches.
var ErrNotFound = errors.New("refresh token not found")

// Store issues, rotates, and revokes refresh tokens against a TokenStore.
type Store struct {
	tokens TokenStore
	ttl    time.Duration
	now    func() time.Time
}

// NewStore wraps tokens with the configured refresh lifetime.
func NewStore(tokens TokenStore, ttl time.Duration) (*Store, error) {
	if tokens == nil {
		return nil, errors.New("nil token store")
	}
	if ttl <= 0 {
		return nil, errors.New("non-positive refresh ttl")
	}
	return &Store{tokens: tokens, ttl: ttl, now: time.Now}, nil
}

// Issue persists a fresh token for userID and returns the plaintext bearer
// string. The record id is never the credential.
func (s *Store) Issue(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := &Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return token, nil
}

// Rotate exchanges oldToken for a fresh one. The old record is deleted before
// the replacement is issued; losing the conditional delete means another
// rotation already consumed the token, and the caller gets ErrInvalid.
func (s *Store) Rotate(ctx context.Context, oldToken string) (userID, newToken string, err error) {
	if oldToken == "" {
		return "", "", ErrInvalid
	}

	rec, err := s.tokens.Find(ctx, oldToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", ErrInvalid
		}
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !s.now().Before(rec.ExpiresAt) {
		_, _ = s.tokens.Delete(ctx, oldToken)
		return "", "", ErrInvalid
	}

	deleted, err := s.tokens.Delete(ctx, oldToken)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !deleted {
		// Lost the race: a concurrent rotation consumed the token first.
		return "", "", ErrInvalid
	}

	fresh, err := s.Issue(ctx, rec.UserID)
	if err != nil {
		return "", "", err
	}

	return rec.UserID, fresh, nil
}

// Revoke deletes the matching record if present. Idempotent: revoking an
// unknown token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.tokens.Delete(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SweepExpired deletes every record past its expiry and reports the count.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

func newToken() (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
