package revocation

import (
	"context"
	"time"
)

// Registry pairs the blacklist with the claims cache.
type Registry struct {
	store    *Store
	cache    ClaimsCache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewRegistry wires a blacklist and a cache. A nil cache disables caching.
func NewRegistry(store *Store, cache ClaimsCache, cacheTTL time.Duration, now func() time.Time) *Registry {
	if cache == nil {
		cache = NoCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{store: store, cache: cache, cacheTTL: cacheTTL, now: now}
}

// IsRevoked checks the blacklist. Errors must be treated as a failed check.
func (r *Registry) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	return r.store.IsRevoked(ctx, tokenHash)
}

// Revoke blacklists a token until expiresAt and evicts any cached claims.
// The eviction happens on every path, including a failed write.
func (r *Registry) Revoke(ctx context.Context, tokenHash, tenantID string, expiresAt time.Time) (bool, error) {
	defer r.cache.Evict(tokenHash)

	return r.store.Revoke(ctx, tokenHash, tenantID, expiresAt.Sub(r.now()))
}

// Cached returns claims that are still inside their own validity.
func (r *Registry) Cached(tokenHash string) (Claims, bool) {
	claims, ok := r.cache.Get(tokenHash)
	if !ok {
		return Claims{}, false
	}
	if !claims.ExpiresAt.After(r.now()) {
		r.cache.Evict(tokenHash)
		return Claims{}, false
	}
	return claims, true
}

// Remember caches claims for min(cache TTL, remaining token validity).
// The blacklist is read again after the write so a revoke that landed
// between the caller's check and the write cannot leave claims behind; an
// unreadable blacklist evicts as well.
func (r *Registry) Remember(ctx context.Context, tokenHash string, claims Claims) {
	if _, off := r.cache.(NoCache); off {
		return
	}
	ttl := claims.ExpiresAt.Sub(r.now())
	if r.cacheTTL < ttl {
		ttl = r.cacheTTL
	}
	r.cache.Put(tokenHash, claims, ttl)

	if revoked, err := r.store.IsRevoked(ctx, tokenHash); err != nil || revoked {
		r.cache.Evict(tokenHash)
	}
}

// Close releases cache resources.
func (r *Registry) Close() {
	r.cache.Close()
}
