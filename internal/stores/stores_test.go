package stores

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestKV(t *testing.T) (*kv.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return kv.New(rdb, "", time.Second), mr
}

func TestCaptchaConsumeIsSingleUse(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCaptchaStore(store)
	ctx := context.Background()

	ch := CaptchaChallenge{ID: "c1", Answer: "12", TenantID: "t1", CreatedAt: time.Unix(1700000000, 0)}
	if err := s.Save(ctx, ch, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := s.Consume(ctx, "c1", " 12 ")
	if err != nil || !ok {
		t.Fatalf("expected first verify to pass: ok=%v err=%v", ok, err)
	}
	if got.TenantID != "t1" || got.ID != "c1" || !got.CreatedAt.Equal(ch.CreatedAt) {
		t.Fatalf("unexpected decoded challenge: %+v", got)
	}

	_, ok, err = s.Consume(ctx, "c1", "12")
	if err != nil || ok {
		t.Fatalf("second verify must fail: ok=%v err=%v", ok, err)
	}
}

func TestCaptchaWrongAnswerBurnsChallenge(t *testing.T) {
	store, mr := newTestKV(t)
	s := NewCaptchaStore(store)
	ctx := context.Background()

	if err := s.Save(ctx, CaptchaChallenge{ID: "c2", Answer: "5", TenantID: "t1"}, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, ok, err := s.Consume(ctx, "c2", "6"); err != nil || ok {
		t.Fatalf("wrong answer must fail: ok=%v err=%v", ok, err)
	}
	if mr.Exists("captcha:challenge:c2") {
		t.Fatal("challenge must be deleted after any verify")
	}
	if _, ok, _ := s.Consume(ctx, "c2", "5"); ok {
		t.Fatal("correct answer after burn must fail")
	}
}

func TestCaptchaSaveNeverOverwrites(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCaptchaStore(store)
	ctx := context.Background()

	if err := s.Save(ctx, CaptchaChallenge{ID: "c3", Answer: "1"}, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, CaptchaChallenge{ID: "c3", Answer: "2"}, time.Minute); !errors.Is(err, ErrCaptchaIDTaken) {
		t.Fatalf("expected ErrCaptchaIDTaken, got %v", err)
	}
}

func TestCaptchaExpires(t *testing.T) {
	store, mr := newTestKV(t)
	s := NewCaptchaStore(store)
	ctx := context.Background()

	if err := s.Save(ctx, CaptchaChallenge{ID: "c4", Answer: "9"}, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, err := s.Consume(ctx, "c4", "9"); err != nil || ok {
		t.Fatalf("expired challenge must fail: ok=%v err=%v", ok, err)
	}
}

func TestCaptchaConcurrentConsumeSucceedsOnce(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCaptchaStore(store)
	ctx := context.Background()

	if err := s.Save(ctx, CaptchaChallenge{ID: "c5", Answer: "3"}, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.Consume(ctx, "c5", "3"); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one successful verify, got %d", wins.Load())
	}
}

func TestCodeVerifyAndConsumeOnce(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCodeStore(store, 5)
	ctx := context.Background()
	key := s.Key("login", "t1", "email", "a@example.com")

	if key != "code:login:t1:email:a@example.com" {
		t.Fatalf("unexpected key %q", key)
	}
	if err := s.Save(ctx, key, "123456", time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "123456"); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "123456"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("second verify must fail with ErrCodeNotFound, got %v", err)
	}
}

func TestCodeMismatchCountsAttempts(t *testing.T) {
	store, mr := newTestKV(t)
	s := NewCodeStore(store, 3)
	ctx := context.Background()
	key := s.Key("login", "t1", "phone", "+15550100")

	if err := s.Save(ctx, key, "000111", time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "999999"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if n, err := s.Attempts(ctx, key); err != nil || n != 1 {
		t.Fatalf("expected 1 attempt, got %d err=%v", n, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl must be preserved, got %v", ttl)
	}
	if err := s.VerifyAndConsume(ctx, key, "999998"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "999997"); !errors.Is(err, ErrCodeAttemptsExceeded) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "000111"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("record must be gone after limit, got %v", err)
	}
}

func TestCodeResendReplacesPrevious(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCodeStore(store, 5)
	ctx := context.Background()
	key := s.Key("verify", "t1", "email", "a@example.com")

	_ = s.Save(ctx, key, "111111", time.Minute)
	_ = s.Save(ctx, key, "222222", time.Minute)

	if err := s.VerifyAndConsume(ctx, key, "111111"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("old code must be rejected, got %v", err)
	}
	if err := s.VerifyAndConsume(ctx, key, "222222"); err != nil {
		t.Fatalf("new code must be accepted: %v", err)
	}
}

func TestCodeKeysArePartitionedByTenant(t *testing.T) {
	store, _ := newTestKV(t)
	s := NewCodeStore(store, 5)
	ctx := context.Background()

	_ = s.Save(ctx, s.Key("login", "t1", "email", "a@example.com"), "123456", time.Minute)
	err := s.VerifyAndConsume(ctx, s.Key("login", "t2", "email", "a@example.com"), "123456")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("code must not cross tenants, got %v", err)
	}
}

func TestCodeStoreUnavailable(t *testing.T) {
	store, mr := newTestKV(t)
	s := NewCodeStore(store, 5)
	mr.Close()

	err := s.VerifyAndConsume(context.Background(), "code:x", "123456")
	if !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("expected kv.ErrUnavailable, got %v", err)
	}
}
