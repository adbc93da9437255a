// Package rate implements fixed-window counters shared by every gateway
// instance through Redis.
//
// # Window semantics
//
// Each event runs one Lua script that increments the counter and, on the
// first event of a window, sets the window expiry. Concurrent first events on
// an expired key therefore cannot extend the window twice.
//
// Key namespaces:
//   - rate:{action}:{tenant}:{identifier}: identifier-scoped budget
//   - rateip:{action}:{ip}: client-IP budget
//
// # What this package must NOT do
//
//   - Retry a denied event.
//   - Implement captcha escalation (that lives in internal/limiters).
package rate
