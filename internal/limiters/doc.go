// Package limiters provides escalation counters built on internal/kv.
//
// [CaptchaFailures] counts failed attempts per (action, tenant, identifier)
// and reports when a captcha must be solved before the next attempt. It is a
// softer and earlier signal than the hard budgets in internal/rate.
//
// All methods are nil-safe: a nil receiver counts nothing and never requires
// a captcha.
//
// # What this package must NOT do
//
//   - Deny requests itself; flow functions decide consequences.
//   - Store challenge answers (internal/stores owns those).
package limiters
