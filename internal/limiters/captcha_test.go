package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestFailures(t *testing.T, cfg CaptchaConfig) (*CaptchaFailures, *miniredis.Miniredis) {
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

	return NewCaptchaFailures(kv.New(rdb, "", time.Second), cfg), mr
}

func TestCaptchaRequiredAfterThreshold(t *testing.T) {
	c, _ := newTestFailures(t, CaptchaConfig{Enabled: true, Threshold: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		required, err := c.Required(ctx, "login", "t1", "alice")
		if err != nil || required {
			t.Fatalf("attempt %d: required=%v err=%v", i, required, err)
		}
		reached, err := c.RecordFailure(ctx, "login", "t1", "alice")
		if err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
		if reached != (i == 3) {
			t.Fatalf("attempt %d: unexpected reached=%v", i, reached)
		}
	}

	required, err := c.Required(ctx, "login", "t1", "alice")
	if err != nil || !required {
		t.Fatalf("expected captcha to be required, got %v err=%v", required, err)
	}
	other, err := c.Required(ctx, "login", "t2", "alice")
	if err != nil || other {
		t.Fatalf("other tenant must not be affected, got %v err=%v", other, err)
	}
}

func TestCaptchaResetClearsCounter(t *testing.T) {
	c, mr := newTestFailures(t, CaptchaConfig{Enabled: true, Threshold: 1, Window: time.Minute})
	ctx := context.Background()

	if _, err := c.RecordFailure(ctx, "login", "t1", "alice"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if !mr.Exists("captcha:fail:login:t1:alice") {
		t.Fatal("expected failure key in store")
	}
	if err := c.Reset(ctx, "login", "t1", "alice"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if mr.Exists("captcha:fail:login:t1:alice") {
		t.Fatal("expected failure key to be deleted")
	}
}

func TestCaptchaCounterExpiresWithWindow(t *testing.T) {
	c, mr := newTestFailures(t, CaptchaConfig{Enabled: true, Threshold: 1, Window: time.Minute})
	ctx := context.Background()

	if _, err := c.RecordFailure(ctx, "login", "t1", "alice"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	required, err := c.Required(ctx, "login", "t1", "alice")
	if err != nil || required {
		t.Fatalf("expected window to have expired, required=%v err=%v", required, err)
	}
}

func TestCaptchaDisabledAndNil(t *testing.T) {
	ctx := context.Background()

	var nilCounter *CaptchaFailures
	if required, err := nilCounter.Required(ctx, "login", "t1", "alice"); err != nil || required {
		t.Fatalf("nil counter: required=%v err=%v", required, err)
	}

	c, mr := newTestFailures(t, CaptchaConfig{Enabled: false, Threshold: 1, Window: time.Minute})
	if _, err := c.RecordFailure(ctx, "login", "t1", "alice"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("disabled counter must not write, keys=%v", mr.Keys())
	}
}

func TestCaptchaRequiredStoreFailure(t *testing.T) {
	c, mr := newTestFailures(t, CaptchaConfig{Enabled: true, Threshold: 1, Window: time.Minute})
	mr.Close()

	if _, err := c.Required(context.Background(), "login", "t1", "alice"); !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("expected kv.ErrUnavailable, got %v", err)
	}
}
