package authgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/platewise/authgate/refresh"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Tokens.Secret = []byte("test-secret-test-secret-test-secret!")
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Audit.Enabled = false
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *memUserStore, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	users := newMemUserStore()
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithRefreshStore(newMemTokenStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, users, mr
}

// seedUser inserts a verified account and returns it.
func seedUser(t *testing.T, engine *Engine, users *memUserStore, username, email, pw string) *UserRecord {
	t.Helper()

	hash, err := engine.hasher.Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	u := &UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         "user",
		Verified:     true,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// memUserStore is the in-memory UserStore fake used across engine tests.
// failNext forces the next call to report a backend fault.
type memUserStore struct {
	mu       sync.Mutex
	byID     map[string]UserRecord
	failNext error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[string]UserRecord)}
}

func (s *memUserStore) fail() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memUserStore) Create(_ context.Context, user *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for _, u := range s.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrAccountExists
		}
	}
	s.byID[user.ID] = *user
	return nil
}

func (s *memUserStore) Update(_ context.Context, user *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.byID[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.byID[user.ID] = *user
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	return s.findWhere(func(u UserRecord) bool { return u.Username == username })
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	return s.findWhere(func(u UserRecord) bool { return u.Email == email })
}

func (s *memUserStore) findWhere(match func(UserRecord) bool) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for _, u := range s.byID {
		if match(u) {
			copied := u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memUserStore) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for id, u := range s.byID {
		if token != "" && u.VerificationToken == token && u.VerificationExpiresAt.After(now) {
			u.Verified = true
			u.VerificationToken = ""
			u.VerificationExpiresAt = time.Time{}
			s.byID[id] = u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memUserStore) ConsumeResetToken(_ context.Context, token, newHash string, now time.Time) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for id, u := range s.byID {
		if token != "" && u.ResetToken == token && u.ResetExpiresAt.After(now) {
			u.PasswordHash = newHash
			u.ResetToken = ""
			u.ResetExpiresAt = time.Time{}
			s.byID[id] = u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// get returns the stored copy of a user row.
func (s *memUserStore) get(t *testing.T, id string) UserRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		t.Fatalf("user %s not in store", id)
	}
	return u
}

// put overwrites a user row directly, bypassing the engine.
func (s *memUserStore) put(u UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = u
}

// memTokenStore is the refresh.TokenStore fake.
type memTokenStore struct {
	mu      sync.Mutex
	byToken map[string]refresh.Record
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{byToken: make(map[string]refresh.Record)}
}

func (s *memTokenStore) Create(_ context.Context, rec *refresh.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[rec.Token] = *rec
	return nil
}

func (s *memTokenStore) Find(_ context.Context, token string) (*refresh.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return &rec, nil
}

func (s *memTokenStore) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[token]; !ok {
		return false, nil
	}
	delete(s.byToken, token)
	return true, nil
}

func (s *memTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, rec := range s.byToken {
		if !rec.ExpiresAt.After(now) {
			delete(s.byToken, token)
			n++
		}
	}
	return n, nil
}

// captureSink records audit events synchronously for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *captureSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) all() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
