// Package prometheus renders authgate engine counters in Prometheus text
// exposition format.
//
// [NewExporter] accepts an [authgate.Engine] and exposes an [http.Handler]
// serving all counters. Names are prefixed authgate_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the
//     Handler.
//   - Mutate engine state.
package prometheus
