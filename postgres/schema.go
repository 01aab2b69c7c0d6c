package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                      TEXT PRIMARY KEY,
	username                TEXT NOT NULL UNIQUE,
	email                   TEXT NOT NULL UNIQUE,
	password_hash           TEXT NOT NULL,
	role                    TEXT NOT NULL DEFAULT 'user',
	verified                BOOLEAN NOT NULL DEFAULT FALSE,
	verification_token      TEXT,
	verification_expires_at TIMESTAMPTZ,
	reset_token             TEXT,
	reset_expires_at        TIMESTAMPTZ,
	totp_secret             BYTEA,
	totp_enabled            BOOLEAN NOT NULL DEFAULT FALSE,
	totp_last_verified      TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_verification_token_idx
	ON users (verification_token) WHERE verification_token IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS users_reset_token_idx
	ON users (reset_token) WHERE reset_token IS NOT NULL;

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	token      TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx
	ON refresh_tokens (expires_at);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
// Idempotent; run once at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
