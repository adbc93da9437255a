package limiters

import (
	"context"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
)

// CaptchaConfig holds the failure threshold and counting window.
type CaptchaConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
}

// CaptchaFailures tracks failures under captcha:fail:{action}:{tenant}:{identifier}.
type CaptchaFailures struct {
	store  *kv.Store
	config CaptchaConfig
}

// NewCaptchaFailures creates a failure counter.
func NewCaptchaFailures(store *kv.Store, cfg CaptchaConfig) *CaptchaFailures {
	return &CaptchaFailures{store: store, config: cfg}
}

func (c *CaptchaFailures) active() bool {
	return c != nil && c.config.Enabled && c.config.Threshold > 0
}

// Key returns the counter key.
func (c *CaptchaFailures) Key(action, tenantID, identifier string) string {
	return c.store.Key("captcha:fail", action, tenantID, identifier)
}

// RecordFailure counts one failure. It reports whether the threshold is now reached.
func (c *CaptchaFailures) RecordFailure(ctx context.Context, action, tenantID, identifier string) (bool, error) {
	if !c.active() || identifier == "" {
		return false, nil
	}

	count, err := c.store.IncrWindow(ctx, c.Key(action, tenantID, identifier), c.config.Window)
	if err != nil {
		return false, err
	}
	return count >= int64(c.config.Threshold), nil
}

// Required reports whether the failure count has reached the threshold.
func (c *CaptchaFailures) Required(ctx context.Context, action, tenantID, identifier string) (bool, error) {
	if !c.active() || identifier == "" {
		return false, nil
	}

	count, err := c.Count(ctx, action, tenantID, identifier)
	if err != nil {
		return false, err
	}
	return count >= c.config.Threshold, nil
}

// Count returns the current failure count.
func (c *CaptchaFailures) Count(ctx context.Context, action, tenantID, identifier string) (int, error) {
	if !c.active() || identifier == "" {
		return 0, nil
	}

	n, err := c.store.GetInt(ctx, c.Key(action, tenantID, identifier))
	return int(n), err
}

// Reset deletes the failure counter, typically after a successful attempt.
func (c *CaptchaFailures) Reset(ctx context.Context, action, tenantID, identifier string) error {
	if !c.active() || identifier == "" {
		return nil
	}

	return c.store.Del(ctx, c.Key(action, tenantID, identifier))
}
