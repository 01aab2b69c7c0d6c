// Package refresh implements issuance, rotation, and revocation of the opaque
// rotating refresh tokens backing long-lived sessions.
//
// # Token format
//
// Opaque base64url strings carrying 48 bytes of cryptographic randomness.
// Tokens bear no structure and no claims; the persistent store maps the exact
// string to its owning user and expiry.
//
// # Rotation
//
// A token is single-use: presenting it successfully deletes the record and
// issues a replacement. The store's conditional delete is the arbiter under
// concurrency: the caller whose delete removed the row wins, every other
// racer observes [ErrInvalid]. Absent, expired, and already-rotated tokens are
// indistinguishable from the outside.
//
// # What this package must NOT do
//
//   - Mint or parse signed claim tokens (package jwt owns those).
//   - Import authgate or jwt.
package refresh
