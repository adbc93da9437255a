// Package kv is the single gateway to the shared Redis keyspace.
//
// Every call is bounded by the store's operation timeout and every
// infrastructure failure is wrapped with [ErrUnavailable], so callers can
// tell "the store said no" apart from "the store did not answer". A timeout
// is never reported as a missing key.
//
// Keys are built with [Store.Key], which escapes each component so that
// tenant, action and identifier values containing ':' cannot collide with
// another namespace.
//
// # What this package must NOT do
//
//   - Decide policy (limits, thresholds, fail-open vs fail-closed).
//   - Import authgate or any sibling internal package.
package kv
