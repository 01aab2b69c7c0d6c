// Package rate implements the Redis-backed brute-force limiter guarding the
// login path.
//
// # Window semantics
//
// Two independent sliding counters per attempt: per-username (key prefix
// bf:u:) and per-source-address (key prefix bf:ip:), each with its own
// ceiling and window. Every increment re-arms the key TTL, so a counter only
// decays after the window passes with no further attempts.
//
// # Failure policy
//
// A ceiling hit is [ErrLimited]. An unreachable counter store is
// [ErrUnavailable] unless the limiter was built with FailOpen, in which case
// store failures admit the attempt. One switch, decided at deployment time.
//
// # What this package must NOT do
//
//   - Inspect passwords or user records.
//   - Be imported outside the authgate module.
package rate
