// Package authgate is the authentication and session-lifecycle engine behind
// the Platewise recipe service. It issues and validates short-lived JWT access
// tokens, rotates opaque refresh tokens, enforces TOTP second factors with a
// trust grace window, throttles brute-force login attempts through Redis
// counters, and manages single-use email-verification and password-reset
// tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the store interfaces ([UserStore], and refresh.TokenStore for refresh
// rows), and value types. Persistent storage, outbound email, and HTTP
// routing are external collaborators: the engine reads and writes user and
// refresh-token records only through the store interfaces, and for mail it
// hands back the token and link fragment without sending anything.
//
// # What this package must NOT do
//
//   - Open database connections or send email (adapters and hosts do that;
//     package postgres ships a pgx-backed store implementation).
//   - Retry store calls: every failure is surfaced once, either as a
//     security decision or as [ErrBackendUnavailable].
//   - Reveal which credential check failed: user-not-found and wrong-password
//     both surface as [ErrInvalidCredentials].
package authgate
