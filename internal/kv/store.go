package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable marks any error caused by the store not answering.
var ErrUnavailable = errors.New("store unavailable")

// DefaultTimeout bounds a store call when no timeout is configured.
const DefaultTimeout = 500 * time.Millisecond

// incrWindowLua increments a counter and starts its window on the first
// event. A key left without a TTL is repaired by the same call.
var incrWindowLua = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) == -1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

var takeLua = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v then
  redis.call("DEL", KEYS[1])
end
return v
`)

// Store wraps a Redis client with a key prefix and a per-call timeout.
type Store struct {
	rdb     redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// New returns a Store. A non-positive timeout falls back to DefaultTimeout.
func New(rdb redis.UniversalClient, prefix string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{rdb: rdb, prefix: prefix, timeout: timeout}
}

// Client exposes the underlying client for scripts owned by other packages.
func (s *Store) Client() redis.UniversalClient {
	return s.rdb
}

// Key joins a namespace and escaped components: Key("rate", "login", "t1", "bob")
// yields "rate:login:t1:bob".
func (s *Store) Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(s.prefix)
	b.WriteString(namespace)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(escape(p))
	}
	return b.String()
}

func escape(part string) string {
	if !strings.ContainsAny(part, "%:") {
		return part
	}
	part = strings.ReplaceAll(part, "%", "%25")
	return strings.ReplaceAll(part, ":", "%3A")
}

// Bound derives a context limited by the operation timeout.
func (s *Store) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Wrap tags err as ErrUnavailable. redis.Nil and nil pass through unchanged.
func Wrap(err error) error {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// IncrWindow atomically increments key and sets its expiry on the first
// event of a window. It returns the post-increment count.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	n, err := incrWindowLua.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, Wrap(err)
	}
	return n, nil
}

// GetInt reads a counter. A missing key reads as zero.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	n, err := s.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, Wrap(err)
	}
	return n, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, Wrap(err)
	}
	return n > 0, nil
}

// Set writes value with a TTL, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	return Wrap(s.rdb.Set(ctx, key, value, ttl).Err())
}

// SetNX writes value only if key is absent. It reports whether the write happened.
func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	ok, err := s.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, Wrap(err)
	}
	return ok, nil
}

// Take reads and deletes key in one step. found is false when key was absent.
func (s *Store) Take(ctx context.Context, key string) (value string, found bool, err error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	value, err = takeLua.Run(ctx, s.rdb, []string{key}).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, Wrap(err)
	}
	return value, true, nil
}

// Del removes keys. Missing keys are not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	return Wrap(s.rdb.Del(ctx, keys...).Err())
}

// Run executes a script owned by another package under the store timeout.
func (s *Store) Run(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	ctx, cancel := s.Bound(ctx)
	defer cancel()

	v, err := script.Run(ctx, s.rdb, keys, args...).Result()
	if err != nil {
		return nil, Wrap(err)
	}
	return v, nil
}
