// Package jwt mints and verifies the signed, expiring claim tokens used by the
// engine: short-lived access tokens and MFA-pending tokens.
//
// # Token kinds
//
// One symmetric HS256 secret signs every token the deployment issues. Kinds are
// discriminated by the "typ" claim ([TypeAccess] vs [TypeMFAPending]); the codec
// itself does not enforce kind separation; callers must check [Claims.TokenType]
// before trusting a token for a given purpose.
//
// # Architecture boundaries
//
// This package is pure CPU work over the configured secret. It performs no I/O,
// holds no state beyond its config, and imports no other authgate package.
package jwt
