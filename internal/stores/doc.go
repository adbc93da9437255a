// Package stores provides Redis-backed, short-lived single-use records:
// captcha challenges and one-time verification codes.
//
// # Design
//
// Records are versioned binary blobs with a TTL. Consumption is one Lua
// round trip (read, compare, delete), so a record can satisfy at most one
// successful verification no matter how many requests race for it. Captcha
// challenges are keyed solely by their random id. Verification codes are
// keyed by purpose, tenant, channel and address, and are stored as SHA-256
// digests with an attempt counter.
//
// # What this package must NOT do
//
//   - Generate codes or operands (the engine does that).
//   - Enforce rate limits or captcha escalation.
//   - Log or expose plaintext secrets.
package stores
