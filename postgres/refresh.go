package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/authgate/refresh"
)

// RefreshTokens implements refresh.TokenStore on a pgx pool.
type RefreshTokens struct {
	pool *pgxpool.Pool
}

// NewRefreshTokens wraps an existing pool.
func NewRefreshTokens(pool *pgxpool.Pool) *RefreshTokens {
	return &RefreshTokens{pool: pool}
}

func (s *RefreshTokens) Create(ctx context.Context, rec *refresh.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, rec.Token, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokens) Find(ctx context.Context, token string) (*refresh.Record, error) {
	var rec refresh.Record
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens WHERE token = $1`, token).
		Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refresh.ErrNotFound
		}
		return nil, fmt.Errorf("select refresh token: %w", err)
	}
	return &rec, nil
}

// Delete removes the row for token and reports whether this call removed it.
// The row count from a keyed DELETE is the arbiter under concurrent rotation:
// only one caller sees 1.
func (s *RefreshTokens) Delete(ctx context.Context, token string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *RefreshTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
