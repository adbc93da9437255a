package revocation

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Claims is the cached result of a successful token validation.
type Claims struct {
	TenantID  string
	UserID    int64
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClaimsCache memoizes validated claims by token hash.
type ClaimsCache interface {
	Get(tokenHash string) (Claims, bool)
	Put(tokenHash string, claims Claims, ttl time.Duration)
	Evict(tokenHash string)
	Close()
}

// CacheConfig sizes the in-memory cache.
type CacheConfig struct {
	MaxEntries int64
}

// MemoryCache is a ClaimsCache over ristretto. Each entry costs 1, so
// MaxEntries bounds the entry count.
type MemoryCache struct {
	cache     *ristretto.Cache[string, Claims]
	closeOnce sync.Once
}

// NewMemoryCache creates a ristretto-backed cache.
func NewMemoryCache(cfg CacheConfig) (*MemoryCache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100_000
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, Claims]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: c}, nil
}

// Get returns cached claims.
func (m *MemoryCache) Get(tokenHash string) (Claims, bool) {
	return m.cache.Get(tokenHash)
}

// Put stores claims and waits for the write to become visible.
func (m *MemoryCache) Put(tokenHash string, claims Claims, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.cache.SetWithTTL(tokenHash, claims, 1, ttl)
	m.cache.Wait()
}

// Evict removes the entry immediately.
func (m *MemoryCache) Evict(tokenHash string) {
	m.cache.Del(tokenHash)
}

// Close stops ristretto's background goroutines. It is idempotent.
func (m *MemoryCache) Close() {
	m.closeOnce.Do(m.cache.Close)
}

// NoCache disables caching; every lookup misses.
type NoCache struct{}

// Get always misses.
func (NoCache) Get(string) (Claims, bool) { return Claims{}, false }

// Put discards the claims.
func (NoCache) Put(string, Claims, time.Duration) {}

// Evict is a no-op.
func (NoCache) Evict(string) {}

// Close is a no-op.
func (NoCache) Close() {}
