// Package authgate is the core of a multi-tenant authentication gateway: it
// issues and validates signed access tokens, revokes them, throttles
// attempts per action, gates repeated failures behind arithmetic captchas,
// and sends and checks one-time verification codes.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Coordination between replicas happens only through Redis.
//
// # Tenants
//
// Every call carries a declared tenant attached with [WithTenantID]. Tokens
// embed the tenant they were issued for, and every authenticated operation
// rejects a token whose tenant differs from the declared one.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types. Flow orchestration, key encoding, rate limiting, the
// revocation registry and audit dispatch live under internal/ and are never
// exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Treat a store failure as "not revoked", "not found" or "allowed".
//   - Import any sub-package that re-imports authgate.
package authgate
