package rate

import (
	"context"
	"time"

	"github.com/MrEthical07/authgate/internal/kv"
)

// Rule is the budget for one action class: at most MaxAttempts events per Window.
type Rule struct {
	MaxAttempts int
	Window      time.Duration
}

func (r Rule) enabled() bool {
	return r.MaxAttempts > 0 && r.Window > 0
}

// Config holds the per-action threshold table and the per-IP class.
type Config struct {
	Rules            map[string]Rule
	IP               Rule
	EnableIPThrottle bool
	// Strict rejects actions missing from Rules instead of leaving them unlimited.
	Strict bool
}

// Limiter enforces Config against the shared store.
type Limiter struct {
	store  *kv.Store
	config Config
}

// New creates a [Limiter]. The rule table is copied.
func New(store *kv.Store, cfg Config) *Limiter {
	rules := make(map[string]Rule, len(cfg.Rules))
	for action, rule := range cfg.Rules {
		rules[action] = rule
	}
	cfg.Rules = rules

	return &Limiter{
		store:  store,
		config: cfg,
	}
}

// Enforce applies the identifier-scoped check and, when enabled, the IP check.
// Failing either denies the event.
func (l *Limiter) Enforce(ctx context.Context, action, tenantID, identifier, ip string) error {
	if err := l.Check(ctx, action, tenantID, identifier); err != nil {
		return err
	}
	return l.CheckIP(ctx, action, ip)
}

// Check counts one event against rate:{action}:{tenant}:{identifier}.
func (l *Limiter) Check(ctx context.Context, action, tenantID, identifier string) error {
	rule, ok := l.config.Rules[action]
	if !ok {
		if l.config.Strict {
			return ErrUnknownAction
		}
		return nil
	}
	if !rule.enabled() {
		return nil
	}

	return l.checkCounter(ctx, l.Key(action, tenantID, identifier), rule)
}

// CheckIP counts one event against rateip:{action}:{ip}. Empty IPs are not counted.
func (l *Limiter) CheckIP(ctx context.Context, action, ip string) error {
	if !l.config.EnableIPThrottle || ip == "" || !l.config.IP.enabled() {
		return nil
	}

	return l.checkCounter(ctx, l.IPKey(action, ip), l.config.IP)
}

// Count returns the current identifier-scoped count without incrementing it.
func (l *Limiter) Count(ctx context.Context, action, tenantID, identifier string) (int, error) {
	n, err := l.store.GetInt(ctx, l.Key(action, tenantID, identifier))
	return int(n), err
}

// Reset clears the identifier-scoped counter.
func (l *Limiter) Reset(ctx context.Context, action, tenantID, identifier string) error {
	return l.store.Del(ctx, l.Key(action, tenantID, identifier))
}

// Rule returns the configured rule for action.
func (l *Limiter) Rule(action string) (Rule, bool) {
	r, ok := l.config.Rules[action]
	return r, ok
}

func (l *Limiter) checkCounter(ctx context.Context, key string, rule Rule) error {
	count, err := l.store.IncrWindow(ctx, key, rule.Window)
	if err != nil {
		return err
	}
	if count > int64(rule.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Key returns the identifier-scoped counter key.
func (l *Limiter) Key(action, tenantID, identifier string) string {
	return l.store.Key("rate", action, tenantID, identifier)
}

// IPKey returns the IP-scoped counter key.
func (l *Limiter) IPKey(action, ip string) string {
	return l.store.Key("rateip", action, ip)
}
