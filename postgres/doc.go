// Package postgres persists users and refresh tokens in PostgreSQL through
// pgx connection pools.
//
// # Architecture boundaries
//
// This package implements the authgate.UserStore and refresh.TokenStore
// interfaces and nothing more. All policy (token lifetimes, rotation rules,
// enumeration folding) lives in the engine; the adapter's only contracts are
// the atomicity guarantees the interfaces document: link-token consumption is
// a single conditional UPDATE, and refresh deletion reports whether this call
// removed the row so concurrent rotators can be arbitrated.
//
// # What this package must NOT do
//
//   - Interpret or log token values.
//   - Retry, cache, or pool beyond what pgxpool already does.
//   - Apply schema migrations beyond the idempotent EnsureSchema bootstrap.
package postgres
