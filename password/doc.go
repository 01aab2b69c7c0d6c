// Package password wraps the bcrypt one-way hash used for stored credentials.
//
// Verification is a boolean outcome: a mismatch is not an error, and the
// underlying comparison is constant-time with respect to early mismatch.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other authgate package.
//   - Log plaintext passwords.
package password
