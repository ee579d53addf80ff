// Package observability provides structured logging and decision metrics
// for the generation admission control plane.
//
// This package implements:
//   - zap logger construction from observability configuration
//   - per-outcome admission decision counters (success, failure by reason)
//
// Every admission decision emits exactly one metric event and one structured
// audit log entry.
package observability
