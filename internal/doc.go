// Package internal contains helpers that are private to authgate: secure
// random numeric codes, random operands, and token/secret digests.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: orchestration of login, refresh, logout and per-request validation
//   - kv: bounded-timeout access to the shared Redis keyspace
//   - limiters: captcha failure counters
//   - rate: atomic per-action and per-IP fixed-window limits
//   - revocation: token blacklist and the process-local claims cache
//   - stores: single-use captcha challenges and verification codes
//
// # What this package must NOT do
//
//   - Export types that appear in the public authgate API.
//   - Be imported by any package outside the authgate module.
package internal
