package stores

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/redis/go-redis/v9"
)

const (
	codeRecordVersionV1 = 1
	codeRecordSize      = 1 + 2 + sha256.Size

	// DefaultCodeMaxAttempts bounds wrong guesses against one stored code.
	DefaultCodeMaxAttempts = 5
)

var (
	// ErrCodeNotFound means no live code exists for the key.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrCodeMismatch means the provided code was wrong.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCodeAttemptsExceeded means the code was deleted after too many wrong guesses.
	ErrCodeAttemptsExceeded = errors.New("verification code attempts exceeded")
)

// consumeCodeLua compares a provided digest with the stored record and
// deletes the record on match. Wrong guesses bump the attempt counter in
// place, keeping the remaining TTL, and delete the record at the limit.
// KEYS[1] = record key
// ARGV[1] = provided digest (32 bytes)
// ARGV[2] = max attempts
//
// Returns the record on success, otherwise 0 (not found), -1 (mismatch)
// or -2 (attempts exceeded).
var consumeCodeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 0
end
if string.len(data) ~= 35 or string.byte(data, 1) ~= 1 then
  redis.call('DEL', KEYS[1])
  return 0
end

local stored = string.sub(data, 4, 35)
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return data
end

local attempts = string.byte(data, 2) * 256 + string.byte(data, 3) + 1
if attempts >= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return -2
end

local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
  redis.call('DEL', KEYS[1])
  return 0
end
local updated = string.sub(data, 1, 1) .. string.char(math.floor(attempts / 256), attempts % 256) .. stored
redis.call('SET', KEYS[1], updated, 'PX', ttl)
return -1
`)

// CodeStore persists one-time codes under code:{purpose}:{tenant}:{channel}:{address}.
type CodeStore struct {
	store       *kv.Store
	maxAttempts int
}

// NewCodeStore creates a code store. maxAttempts <= 0 uses DefaultCodeMaxAttempts.
func NewCodeStore(store *kv.Store, maxAttempts int) *CodeStore {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeMaxAttempts
	}
	return &CodeStore{store: store, maxAttempts: maxAttempts}
}

// Key returns the record key.
func (s *CodeStore) Key(purpose, tenantID, channel, address string) string {
	return s.store.Key("code", purpose, tenantID, channel, address)
}

// Save stores the digest of code under key, replacing any earlier code.
func (s *CodeStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	sum := sha256.Sum256([]byte(code))

	buf := make([]byte, 0, codeRecordSize)
	buf = append(buf, codeRecordVersionV1)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = append(buf, sum[:]...)

	return s.store.Set(ctx, key, string(buf), ttl)
}

// VerifyAndConsume deletes the record when code matches. A nil error means
// the code was accepted; it cannot be accepted again.
func (s *CodeStore) VerifyAndConsume(ctx context.Context, key, code string) error {
	sum := sha256.Sum256([]byte(code))

	res, err := s.store.Run(ctx, consumeCodeLua, []string{key}, string(sum[:]), s.maxAttempts)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeNotFound
		}
		return err
	}

	switch v := res.(type) {
	case int64:
		switch v {
		case -1:
			return ErrCodeMismatch
		case -2:
			return ErrCodeAttemptsExceeded
		default:
			return ErrCodeNotFound
		}
	case string:
		if len(v) != codeRecordSize {
			return fmt.Errorf("%w: unexpected record size", kv.ErrUnavailable)
		}
		if subtle.ConstantTimeCompare([]byte(v[3:]), sum[:]) != 1 {
			return ErrCodeMismatch
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected lua result type", kv.ErrUnavailable)
	}
}

// Attempts returns the number of wrong guesses recorded for key.
func (s *CodeStore) Attempts(ctx context.Context, key string) (int, error) {
	ctx, cancel := s.store.Bound(ctx)
	defer cancel()

	data, err := s.store.Client().Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCodeNotFound
		}
		return 0, kv.Wrap(err)
	}
	if len(data) != codeRecordSize {
		return 0, ErrCodeNotFound
	}
	return int(binary.BigEndian.Uint16(data[1:3])), nil
}
