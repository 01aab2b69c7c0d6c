package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/platewise/authgate"
	"github.com/platewise/authgate/refresh"
)

func newGuardedServer(t *testing.T) (*authgate.Engine, http.Handler) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := authgate.DefaultConfig()
	cfg.Tokens.Secret = []byte("test-secret-test-secret-test-secret!")
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Audit.Enabled = false

	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithUserStore(newStubUsers()).
		WithRefreshStore(newStubTokens()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		if !ok {
			t.Error("guarded handler reached without auth result")
			return
		}
		w.Header().Set("X-User", res.UserID)
		w.WriteHeader(http.StatusOK)
	}))

	return engine, handler
}

func loginAs(t *testing.T, engine *authgate.Engine) *authgate.LoginResult {
	t.Helper()

	ctx := context.Background()
	reg, err := engine.Register(ctx, "alice", "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := engine.ConfirmEmail(ctx, reg.VerificationToken); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}

	res, err := engine.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func TestGuardAllowsHeaderToken(t *testing.T) {
	engine, handler := newGuardedServer(t)
	session := loginAs(t, engine)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+session.AccessToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-User"); got != session.UserID {
		t.Fatalf("X-User = %q, want %q", got, session.UserID)
	}
}

func TestGuardAllowsCookieToken(t *testing.T) {
	engine, handler := newGuardedServer(t)
	session := loginAs(t, engine)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range engine.SessionCookies(session) {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	engine, handler := newGuardedServer(t)

	cases := map[string]func(*http.Request){
		"no token":  func(*http.Request) {},
		"garbage":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
		"bad value": func(r *http.Request) { r.Header.Set("Authorization", "nonsense") },
	}
	for name, prep := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		prep(r)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, w.Code)
		}
	}

	// RequireHeader ignores cookies entirely.
	session := loginAs(t, engine)
	strict := RequireHeader(engine)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range engine.SessionCookies(session) {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	strict.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("RequireHeader with cookie only: status = %d, want 401", w.Code)
	}
}

// Minimal store fakes; the engine drives them through its public interfaces.

type stubUsers struct {
	mu   sync.Mutex
	byID map[string]authgate.UserRecord
}

func newStubUsers() *stubUsers {
	return &stubUsers{byID: make(map[string]authgate.UserRecord)}
}

func (s *stubUsers) Create(_ context.Context, u *authgate.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return authgate.ErrAccountExists
		}
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *stubUsers) Update(_ context.Context, u *authgate.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return authgate.ErrUserNotFound
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, authgate.ErrUserNotFound
	}
	return &u, nil
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*authgate.UserRecord, error) {
	return s.find(func(u authgate.UserRecord) bool { return u.Username == username })
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*authgate.UserRecord, error) {
	return s.find(func(u authgate.UserRecord) bool { return u.Email == email })
}

func (s *stubUsers) find(match func(authgate.UserRecord) bool) (*authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			copied := u
			return &copied, nil
		}
	}
	return nil, authgate.ErrUserNotFound
}

func (s *stubUsers) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (*authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.byID {
		if token != "" && u.VerificationToken == token && u.VerificationExpiresAt.After(now) {
			u.Verified = true
			u.VerificationToken = ""
			u.VerificationExpiresAt = time.Time{}
			s.byID[id] = u
			return &u, nil
		}
	}
	return nil, authgate.ErrUserNotFound
}

func (s *stubUsers) ConsumeResetToken(_ context.Context, token, newHash string, now time.Time) (*authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.byID {
		if token != "" && u.ResetToken == token && u.ResetExpiresAt.After(now) {
			u.PasswordHash = newHash
			u.ResetToken = ""
			u.ResetExpiresAt = time.Time{}
			s.byID[id] = u
			return &u, nil
		}
	}
	return nil, authgate.ErrUserNotFound
}

type stubTokens struct {
	mu      sync.Mutex
	byToken map[string]refresh.Record
}

func newStubTokens() *stubTokens {
	return &stubTokens{byToken: make(map[string]refresh.Record)}
}

func (s *stubTokens) Create(_ context.Context, rec *refresh.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[rec.Token] = *rec
	return nil
}

func (s *stubTokens) Find(_ context.Context, token string) (*refresh.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return &rec, nil
}

func (s *stubTokens) Delete(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[token]; !ok {
		return false, nil
	}
	delete(s.byToken, token)
	return true, nil
}

func (s *stubTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
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
