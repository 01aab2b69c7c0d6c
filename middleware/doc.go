// Package middleware exposes HTTP middleware adapters that enforce access
// tokens on wrapped handlers using authgate.Engine validation.
//
// # Guards
//
//   - [Guard] — reads the Authorization header, falls back to the session
//     cookie, and injects the validated result into the request context.
//   - [RequireHeader] — Authorization header only, no cookie fallback.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the user store or counter store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Validate.
package middleware
