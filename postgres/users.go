package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/authgate"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, role, verified,
	verification_token, verification_expires_at, reset_token, reset_expires_at,
	totp_secret, totp_enabled, totp_last_verified`

// Users implements authgate.UserStore on a pgx pool.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers wraps an existing pool. The pool's lifecycle stays with the
// caller.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

func (s *Users) Create(ctx context.Context, user *authgate.UserRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.Verified,
		nullStr(user.VerificationToken), nullTime(user.VerificationExpiresAt),
		nullStr(user.ResetToken), nullTime(user.ResetExpiresAt),
		user.TOTPSecret, user.TOTPEnabled, nullTime(user.TOTPLastVerified),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrAccountExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Users) Update(ctx context.Context, user *authgate.UserRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			username = $2, email = $3, password_hash = $4, role = $5, verified = $6,
			verification_token = $7, verification_expires_at = $8,
			reset_token = $9, reset_expires_at = $10,
			totp_secret = $11, totp_enabled = $12, totp_last_verified = $13,
			updated_at = now()
		WHERE id = $1`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.Verified,
		nullStr(user.VerificationToken), nullTime(user.VerificationExpiresAt),
		nullStr(user.ResetToken), nullTime(user.ResetExpiresAt),
		user.TOTPSecret, user.TOTPEnabled, nullTime(user.TOTPLastVerified),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

func (s *Users) FindByID(ctx context.Context, id string) (*authgate.UserRecord, error) {
	return s.findBy(ctx, "id", id)
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*authgate.UserRecord, error) {
	return s.findBy(ctx, "username", username)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*authgate.UserRecord, error) {
	return s.findBy(ctx, "email", email)
}

func (s *Users) findBy(ctx context.Context, column, value string) (*authgate.UserRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	return scanUser(row, "select user")
}

// ConsumeVerificationToken marks the matching unexpired row verified and
// clears the token pair in one conditional update. The partial unique index
// on verification_token makes the WHERE clause hit at most one row, so under
// concurrent calls exactly one observes it.
func (s *Users) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*authgate.UserRecord, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			verified = TRUE,
			verification_token = NULL, verification_expires_at = NULL,
			updated_at = now()
		WHERE verification_token = $1 AND verification_expires_at > $2
		RETURNING `+userColumns, token, now)
	return scanUser(row, "consume verification token")
}

// ConsumeResetToken swaps in newHash and clears the token pair on the
// matching unexpired row, same single-update shape as verification.
func (s *Users) ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (*authgate.UserRecord, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			password_hash = $2,
			reset_token = NULL, reset_expires_at = NULL,
			updated_at = now()
		WHERE reset_token = $1 AND reset_expires_at > $3
		RETURNING `+userColumns, token, newHash, now)
	return scanUser(row, "consume reset token")
}

func scanUser(row pgx.Row, op string) (*authgate.UserRecord, error) {
	var (
		u            authgate.UserRecord
		verifyToken  sql.NullString
		verifyExpiry sql.NullTime
		resetToken   sql.NullString
		resetExpiry  sql.NullTime
		lastVerified sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Verified,
		&verifyToken, &verifyExpiry, &resetToken, &resetExpiry,
		&u.TOTPSecret, &u.TOTPEnabled, &lastVerified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authgate.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.VerificationToken = verifyToken.String
	u.VerificationExpiresAt = verifyExpiry.Time
	u.ResetToken = resetToken.String
	u.ResetExpiresAt = resetExpiry.Time
	u.TOTPLastVerified = lastVerified.Time
	return &u, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
