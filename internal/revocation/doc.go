// Package revocation owns the two places that decide whether a token is
// still alive: the durable blacklist in Redis and the process-local claims
// cache.
//
// # Consistency rule
//
// [Registry.Revoke] always evicts the cache entry for the revoked hash, even
// when the blacklist write is skipped (token already expired) or fails.
// Readers consult [Registry.IsRevoked] before the cache, so a cache entry for
// a revoked hash is never served.
//
// # What this package must NOT do
//
//   - Parse or sign tokens.
//   - Treat a store error as "not revoked".
package revocation
