package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memTokenStore is a mutex-guarded TokenStore with conditional-delete
// semantics matching the persistent store contract.
type memTokenStore struct {
	mu   sync.Mutex
	rows map[string]*Record

	failNext bool
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: make(map[string]*Record)}
}

func (m *memTokenStore) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("backend down")
	}
	cp := *rec
	m.rows[rec.Token] = &cp
	return nil
}

func (m *memTokenStore) Find(_ context.Context, token string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, errors.New("backend down")
	}
	rec, ok := m.rows[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memTokenStore) Delete(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return false, errors.New("backend down")
	}
	if _, ok := m.rows[token]; !ok {
		return false, nil
	}
	delete(m.rows, token)
	return true, nil
}

func (m *memTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, rec := range m.rows {
		if !now.Before(rec.ExpiresAt) {
			delete(m.rows, token)
			n++
		}
	}
	return n, nil
}

func newTestStore(t *testing.T) (*Store, *memTokenStore) {
	t.Helper()
	mem := newMemTokenStore()
	store, err := NewStore(mem, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, mem
}

func TestIssueReturnsOpaqueToken(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(token) < 64 {
		t.Fatalf("token too short: %d chars", len(token))
	}

	rec := mem.rows[token]
	if rec == nil {
		t.Fatal("record not persisted under token string")
	}
	if rec.UserID != "u1" {
		t.Fatalf("UserID = %q, want u1", rec.UserID)
	}
	if token == rec.ID {
		t.Fatal("plaintext token must not be the record id")
	}
	if got := rec.ExpiresAt.Sub(rec.CreatedAt); got != 7*24*time.Hour {
		t.Fatalf("lifetime = %v, want 168h", got)
	}
}

func TestRotateIsSingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	original, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, replacement, err := store.Rotate(ctx, original)
	if err != nil {
		t.Fatalf("first Rotate failed: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("userID = %q, want u1", userID)
	}
	if replacement == original {
		t.Fatal("rotation returned the same token")
	}

	if _, _, err := store.Rotate(ctx, original); !errors.Is(err, ErrInvalid) {
		t.Fatalf("second Rotate = %v, want ErrInvalid", err)
	}

	// The replacement keeps working.
	if _, _, err := store.Rotate(ctx, replacement); err != nil {
		t.Fatalf("Rotate of replacement failed: %v", err)
	}
}

func TestRotateConcurrentExactlyOneWins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = store.Rotate(ctx, token)
		}(i)
	}
	wg.Wait()

	var wins, invalids int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalid):
			invalids++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if invalids != racers-1 {
		t.Fatalf("invalids = %d, want %d", invalids, racers-1)
	}
}

func TestRotateExpiredTokenIsInvalid(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	if _, _, err := store.Rotate(ctx, token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Rotate = %v, want ErrInvalid", err)
	}
	if _, ok := mem.rows[token]; ok {
		t.Fatal("expired record not cleaned up on lookup")
	}
}

func TestRotateUnknownTokenIsInvalid(t *testing.T) {
	store, _ := newTestStore(t)

	if _, _, err := store.Rotate(context.Background(), "never-issued"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Rotate = %v, want ErrInvalid", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("first Revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, ""); err != nil {
		t.Fatalf("empty Revoke failed: %v", err)
	}

	if _, _, err := store.Rotate(ctx, token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Rotate after Revoke = %v, want ErrInvalid", err)
	}
}

func TestSweepExpiredRemovesOnlyStaleRows(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	stale, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	mem.rows[stale].ExpiresAt = time.Now().Add(-time.Minute)

	live, err := store.Issue(ctx, "u2")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	n, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	if _, ok := mem.rows[live]; !ok {
		t.Fatal("live token swept")
	}
}

func TestBackendFailureSurfacesUnavailable(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	mem.failNext = true
	if _, err := store.Issue(ctx, "u1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Issue = %v, want ErrUnavailable", err)
	}

	token, err := store.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mem.failNext = true
	if _, _, err := store.Rotate(ctx, token); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Rotate = %v, want ErrUnavailable", err)
	}
}
