package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newTestRegistry(t *testing.T, clock *fixedClock) (*Registry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache, err := NewMemoryCache(CacheConfig{MaxEntries: 1000})
	if err != nil {
		t.Fatalf("NewMemoryCache failed: %v", err)
	}

	reg := NewRegistry(NewStore(kv.New(rdb, "", time.Second)), cache, 5*time.Minute, clock.Now)
	t.Cleanup(func() {
		reg.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return reg, mr
}

func testClaims(now time.Time) Claims {
	return Claims{
		TenantID:  "t1",
		UserID:    42,
		Username:  "alice",
		TokenID:   "jti-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestRevokeEvictsCachedClaims(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, mr := newTestRegistry(t, clock)
	ctx := context.Background()

	claims := testClaims(clock.t)
	reg.Remember(context.Background(), "h1", claims)
	if got, ok := reg.Cached("h1"); !ok || got.UserID != 42 {
		t.Fatalf("expected cached claims, got %+v ok=%v", got, ok)
	}

	wrote, err := reg.Revoke(ctx, "h1", "t1", claims.ExpiresAt)
	if err != nil || !wrote {
		t.Fatalf("Revoke failed: wrote=%v err=%v", wrote, err)
	}
	if _, ok := reg.Cached("h1"); ok {
		t.Fatal("cached claims must be unreachable after revoke")
	}

	revoked, err := reg.IsRevoked(ctx, "h1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v err=%v", revoked, err)
	}
	if v, _ := mr.Get("blacklist:h1"); v != "t1" {
		t.Fatalf("expected tenant in blacklist entry, got %q", v)
	}
	if ttl := mr.TTL("blacklist:h1"); ttl != time.Hour {
		t.Fatalf("blacklist ttl must equal remaining validity, got %v", ttl)
	}
}

func TestRevokeExpiredTokenStillEvicts(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, mr := newTestRegistry(t, clock)

	claims := testClaims(clock.t)
	reg.Remember(context.Background(), "h2", claims)

	wrote, err := reg.Revoke(context.Background(), "h2", "t1", clock.t.Add(-time.Second))
	if err != nil || wrote {
		t.Fatalf("expected no-op write, wrote=%v err=%v", wrote, err)
	}
	if mr.Exists("blacklist:h2") {
		t.Fatal("no blacklist entry expected for a dead token")
	}
	if _, ok := reg.Cached("h2"); ok {
		t.Fatal("cache must be evicted even when the write is skipped")
	}
}

func TestRevokeStoreFailureStillEvicts(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, mr := newTestRegistry(t, clock)

	claims := testClaims(clock.t)
	reg.Remember(context.Background(), "h3", claims)
	mr.Close()

	if _, err := reg.Revoke(context.Background(), "h3", "t1", claims.ExpiresAt); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("expected kv.ErrUnavailable, got %v", err)
	}
	if _, ok := reg.Cached("h3"); ok {
		t.Fatal("cache must be evicted when the write fails")
	}
	if _, err := reg.IsRevoked(context.Background(), "h3"); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("IsRevoked must surface store failure, got %v", err)
	}
}

func TestCachedTTLBoundedByTokenExpiry(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, _ := newTestRegistry(t, clock)

	claims := testClaims(clock.t)
	claims.ExpiresAt = clock.t.Add(time.Minute)
	reg.Remember(context.Background(), "h4", claims)

	if _, ok := reg.Cached("h4"); !ok {
		t.Fatal("expected cache hit")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := reg.Cached("h4"); ok {
		t.Fatal("expired claims must not be served from cache")
	}
}

func TestNoCacheAlwaysMisses(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg := NewRegistry(nil, nil, time.Minute, clock.Now)

	reg.Remember(context.Background(), "h5", testClaims(clock.t))
	if _, ok := reg.Cached("h5"); ok {
		t.Fatal("NoCache must miss")
	}
}

func TestRememberAfterConcurrentRevokeIsDropped(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, _ := newTestRegistry(t, clock)
	ctx := context.Background()
	claims := testClaims(clock.t)

	// A validating request passes the blacklist check, then a logout revokes
	// the token before the request caches what it parsed.
	revoked, err := reg.IsRevoked(ctx, "hx")
	if err != nil || revoked {
		t.Fatalf("expected live token, got %v err=%v", revoked, err)
	}
	if _, err := reg.Revoke(ctx, "hx", "t1", claims.ExpiresAt); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	reg.Remember(ctx, "hx", claims)

	if _, ok := reg.Cached("hx"); ok {
		t.Fatal("claims for a revoked token must not be cached")
	}
}

func TestRememberWithUnreadableBlacklistCachesNothing(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	reg, mr := newTestRegistry(t, clock)
	mr.Close()

	reg.Remember(context.Background(), "hy", testClaims(clock.t))
	if _, ok := reg.Cached("hy"); ok {
		t.Fatal("claims must not be cached when the blacklist cannot be read")
	}
}
