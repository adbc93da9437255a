package authgate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/jwt"
)

// Action classes with their own rate-limit budgets.
const (
	ActionLogin      = "login"
	ActionSendCode   = "send_code"
	ActionVerifyCode = "verify_code"
	ActionCaptcha    = "captcha"
	ActionRefresh    = "refresh"
)

// Config is the full engine configuration. Build clones it, so later changes
// by the caller have no effect on a running Engine.
type Config struct {
	JWT          JWTConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	Captcha      CaptchaConfig
	Verification VerificationConfig
	MultiTenant  MultiTenantConfig
	Store        StoreConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Security     SecurityConfig
}

// JWTConfig configures access token issuance and validation.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	// MaxFutureIAT bounds how far in the future an iat claim may be.
	MaxFutureIAT time.Duration
	KeyID        string
	// VerifyKeys holds extra verification keys by kid for key rotation.
	VerifyKeys map[string][]byte
}

// CacheConfig configures the in-process validation cache.
type CacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int64
}

// RateRule is a budget of MaxAttempts events per Window.
type RateRule struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimitConfig holds the per-action budgets and the per-IP budget.
type RateLimitConfig struct {
	Rules            map[string]RateRule
	IP               RateRule
	EnableIPThrottle bool
	// StrictActions rejects actions with no rule instead of leaving them unlimited.
	StrictActions bool
}

// CaptchaConfig configures the failure-triggered captcha gate.
type CaptchaConfig struct {
	Enabled          bool
	FailureThreshold int
	FailureWindow    time.Duration
	ChallengeTTL     time.Duration
	MaxOperand       int
}

// VerificationConfig configures one-time codes.
type VerificationConfig struct {
	CodeTTL     time.Duration
	CodeLength  int
	MaxAttempts int
	// OpenPurposes lists purposes whose codes may be sent to addresses that
	// belong to no user of the tenant, such as sign-up. Every other purpose
	// only sends to known addresses and silently skips unknown ones.
	OpenPurposes []string
}

// openPurpose reports whether purpose may target unknown addresses.
func (c VerificationConfig) openPurpose(purpose string) bool {
	for _, p := range c.OpenPurposes {
		if p == purpose {
			return true
		}
	}
	return false
}

// MultiTenantConfig configures how tenants are declared over HTTP.
type MultiTenantConfig struct {
	TenantHeader string
}

// StoreConfig configures the Redis key space and call deadlines.
type StoreConfig struct {
	KeyPrefix        string
	OperationTimeout time.Duration
}

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds deployment hardening switches.
type SecurityConfig struct {
	ProductionMode  bool
	MinSecretLength int
}

// DefaultConfig returns a development-friendly configuration. JWT keys are
// left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     2 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        30 * time.Second,
			MaxFutureIAT:  time.Minute,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 100_000,
		},
		RateLimit: RateLimitConfig{
			Rules: map[string]RateRule{
				ActionLogin:      {MaxAttempts: 10, Window: 15 * time.Minute},
				ActionSendCode:   {MaxAttempts: 5, Window: 15 * time.Minute},
				ActionVerifyCode: {MaxAttempts: 10, Window: 15 * time.Minute},
				ActionCaptcha:    {MaxAttempts: 20, Window: 15 * time.Minute},
				ActionRefresh:    {MaxAttempts: 30, Window: 15 * time.Minute},
			},
			IP:               RateRule{MaxAttempts: 100, Window: time.Minute},
			EnableIPThrottle: true,
		},
		Captcha: CaptchaConfig{
			Enabled:          true,
			FailureThreshold: 3,
			FailureWindow:    15 * time.Minute,
			ChallengeTTL:     2 * time.Minute,
			MaxOperand:       10,
		},
		Verification: VerificationConfig{
			CodeTTL:     5 * time.Minute,
			CodeLength:  6,
			MaxAttempts: 5,
		},
		MultiTenant: MultiTenantConfig{
			TenantHeader: "X-Tenant-ID",
		},
		Store: StoreConfig{
			OperationTimeout: 500 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Security: SecurityConfig{
			ProductionMode:  false,
			MinSecretLength: 32,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	if cfg.Verification.OpenPurposes != nil {
		out.Verification.OpenPurposes = append([]string(nil), cfg.Verification.OpenPurposes...)
	}
	if cfg.RateLimit.Rules != nil {
		out.RateLimit.Rules = make(map[string]RateRule, len(cfg.RateLimit.Rules))
		for action, rule := range cfg.RateLimit.Rules {
			out.RateLimit.Rules[action] = rule
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// minSecretLength is the HS256 secret floor enforced for this configuration.
func (c *Config) minSecretLength() int {
	if !c.Security.ProductionMode {
		return 0
	}
	if c.Security.MinSecretLength < 32 {
		return 32
	}
	return c.Security.MinSecretLength
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}
	if c.JWT.MaxFutureIAT < 0 {
		return errors.New("JWT MaxFutureIAT must be >= 0")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if err := jwt.CheckSecret(c.JWT.PrivateKey, c.minSecretLength()); err != nil {
			return fmt.Errorf("JWT hs256 secret: %w", err)
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return errors.New("Cache TTL must be > 0 when the cache is enabled")
		}
		if c.Cache.TTL > c.JWT.AccessTTL {
			return errors.New("Cache TTL must be <= JWT AccessTTL")
		}
		if c.Cache.MaxEntries <= 0 {
			return errors.New("Cache MaxEntries must be > 0 when the cache is enabled")
		}
	}

	for action, rule := range c.RateLimit.Rules {
		if strings.TrimSpace(action) == "" {
			return errors.New("RateLimit rule action must not be empty")
		}
		if rule.MaxAttempts <= 0 || rule.Window <= 0 {
			return fmt.Errorf("RateLimit rule %q needs MaxAttempts > 0 and Window > 0", action)
		}
	}
	if c.RateLimit.EnableIPThrottle && (c.RateLimit.IP.MaxAttempts <= 0 || c.RateLimit.IP.Window <= 0) {
		return errors.New("RateLimit IP rule needs MaxAttempts > 0 and Window > 0 when IP throttling is enabled")
	}

	if c.Captcha.Enabled {
		if c.Captcha.FailureThreshold <= 0 {
			return errors.New("Captcha FailureThreshold must be > 0")
		}
		if c.Captcha.FailureWindow <= 0 {
			return errors.New("Captcha FailureWindow must be > 0")
		}
		if c.Captcha.ChallengeTTL <= 0 {
			return errors.New("Captcha ChallengeTTL must be > 0")
		}
		if c.Captcha.MaxOperand < 2 || c.Captcha.MaxOperand > 1000 {
			return errors.New("Captcha MaxOperand must be between 2 and 1000")
		}
	}

	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification CodeTTL must be > 0")
	}
	if c.Verification.CodeLength < internal.MinCodeDigits || c.Verification.CodeLength > internal.MaxCodeDigits {
		return fmt.Errorf("Verification CodeLength must be between %d and %d", internal.MinCodeDigits, internal.MaxCodeDigits)
	}
	if c.Verification.MaxAttempts <= 0 {
		return errors.New("Verification MaxAttempts must be > 0")
	}

	if strings.TrimSpace(c.MultiTenant.TenantHeader) == "" {
		return errors.New("MultiTenant TenantHeader must not be empty")
	}
	if c.Store.OperationTimeout <= 0 {
		return errors.New("Store OperationTimeout must be > 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Security.ProductionMode {
		if c.JWT.Leeway > time.Minute {
			return errors.New("ProductionMode requires JWT Leeway <= 1m")
		}
		if !c.Captcha.Enabled {
			return errors.New("ProductionMode requires the captcha gate")
		}
		if _, ok := c.RateLimit.Rules[ActionLogin]; !ok {
			return errors.New("ProductionMode requires a login rate-limit rule")
		}
	}

	return nil
}
