// Package flows contains the orchestrators behind every Engine operation.
//
// Each Run function accepts a typed dependency struct and returns a tagged
// result (a Failure kind plus an optional infrastructure error) instead of a
// host-level error. The root engine maps kinds to public errors, metrics and
// audit events.
//
// # Flow states
//
//   - Validate: hash → blacklist → cache or parse → tenant guard
//   - Login: tenant → rate limit → captcha gate → credentials → token
//   - Refresh: validate old → rate limit → revoke old → issue new
//   - Logout: validate → revoke
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authgate (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through dependency funcs.
package flows
