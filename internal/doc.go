// Package internal contains helpers that are intentionally private to
// authgate, currently secure random generation for single-use link tokens.
//
// # Sub-packages
//
//   - rate — Redis-backed brute-force limiter for the login path
//
// # What this package must NOT do
//
//   - Export types that appear in the public authgate API.
//   - Be imported by any package outside the authgate module.
package internal
