package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/directory"
	"github.com/MrEthical07/authgate/sender"
	"gopkg.in/yaml.v3"
)

const configEnv = "AUTHGATE_CONFIG"

// configCandidates are tried in order when neither --config nor
// AUTHGATE_CONFIG names a file.
var configCandidates = []string{"authgate.yaml", "authgate.yml", "authgate.toml"}

type fileConfig struct {
	Production   bool                     `yaml:"production" toml:"production"`
	Server       serverConfig             `yaml:"server" toml:"server"`
	Redis        redisConfig              `yaml:"redis" toml:"redis"`
	Database     databaseConfig           `yaml:"database" toml:"database"`
	JWT          jwtConfig                `yaml:"jwt" toml:"jwt"`
	Cache        cacheConfig              `yaml:"cache" toml:"cache"`
	RateLimit    rateLimitConfig          `yaml:"rate_limit" toml:"rate_limit"`
	Captcha      captchaConfig            `yaml:"captcha" toml:"captcha"`
	Verification verificationConfig       `yaml:"verification" toml:"verification"`
	Store        storeConfig              `yaml:"store" toml:"store"`
	Audit        auditConfig              `yaml:"audit" toml:"audit"`
	Metrics      metricsConfig            `yaml:"metrics" toml:"metrics"`
	Senders      map[string]sender.Config `yaml:"senders" toml:"senders"`
	Tenants      []directory.TenantEntry  `yaml:"tenants" toml:"tenants"`
	Users        []directory.UserEntry    `yaml:"users" toml:"users"`
}

type serverConfig struct {
	Addr              string        `yaml:"addr" toml:"addr"`
	TenantHeader      string        `yaml:"tenant_header" toml:"tenant_header"`
	TrustForwardedFor bool          `yaml:"trust_forwarded_for" toml:"trust_forwarded_for"`
	ReadTimeout       time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type redisConfig struct {
	Addrs    []string `yaml:"addrs" toml:"addrs"`
	Password string   `yaml:"password" toml:"password"`
	DB       int      `yaml:"db" toml:"db"`
}

type databaseConfig struct {
	URL string `yaml:"url" toml:"url"`
}

type jwtConfig struct {
	AccessTTL      time.Duration `yaml:"access_ttl" toml:"access_ttl"`
	SigningMethod  string        `yaml:"signing_method" toml:"signing_method"`
	Secret         string        `yaml:"secret" toml:"secret"`
	SecretFile     string        `yaml:"secret_file" toml:"secret_file"`
	PrivateKeyFile string        `yaml:"private_key_file" toml:"private_key_file"`
	PublicKeyFile  string        `yaml:"public_key_file" toml:"public_key_file"`
	Issuer         string        `yaml:"issuer" toml:"issuer"`
	Audience       string        `yaml:"audience" toml:"audience"`
	Leeway         time.Duration `yaml:"leeway" toml:"leeway"`
	KeyID          string        `yaml:"key_id" toml:"key_id"`
}

type cacheConfig struct {
	Enabled    bool          `yaml:"enabled" toml:"enabled"`
	TTL        time.Duration `yaml:"ttl" toml:"ttl"`
	MaxEntries int64         `yaml:"max_entries" toml:"max_entries"`
}

type rateRule struct {
	MaxAttempts int           `yaml:"max_attempts" toml:"max_attempts"`
	Window      time.Duration `yaml:"window" toml:"window"`
}

type rateLimitConfig struct {
	Rules      map[string]rateRule `yaml:"rules" toml:"rules"`
	IP         rateRule            `yaml:"ip" toml:"ip"`
	IPThrottle bool                `yaml:"ip_throttle" toml:"ip_throttle"`
	Strict     bool                `yaml:"strict" toml:"strict"`
}

type captchaConfig struct {
	Enabled          bool          `yaml:"enabled" toml:"enabled"`
	FailureThreshold int           `yaml:"failure_threshold" toml:"failure_threshold"`
	FailureWindow    time.Duration `yaml:"failure_window" toml:"failure_window"`
	ChallengeTTL     time.Duration `yaml:"challenge_ttl" toml:"challenge_ttl"`
	MaxOperand       int           `yaml:"max_operand" toml:"max_operand"`
}

type verificationConfig struct {
	CodeTTL      time.Duration `yaml:"code_ttl" toml:"code_ttl"`
	CodeLength   int           `yaml:"code_length" toml:"code_length"`
	MaxAttempts  int           `yaml:"max_attempts" toml:"max_attempts"`
	OpenPurposes []string      `yaml:"open_purposes" toml:"open_purposes"`
}

type storeConfig struct {
	KeyPrefix        string        `yaml:"key_prefix" toml:"key_prefix"`
	OperationTimeout time.Duration `yaml:"operation_timeout" toml:"operation_timeout"`
}

type auditConfig struct {
	// Sink is "", "log" or "stdout".
	Sink       string `yaml:"sink" toml:"sink"`
	BufferSize int    `yaml:"buffer_size" toml:"buffer_size"`
}

type metricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

func defaultFileConfig() fileConfig {
	d := authgate.DefaultConfig()
	rules := make(map[string]rateRule, len(d.RateLimit.Rules))
	for action, r := range d.RateLimit.Rules {
		rules[action] = rateRule{MaxAttempts: r.MaxAttempts, Window: r.Window}
	}
	return fileConfig{
		Server: serverConfig{
			Addr:            ":8080",
			TenantHeader:    d.MultiTenant.TenantHeader,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: redisConfig{Addrs: []string{"localhost:6379"}},
		JWT: jwtConfig{
			AccessTTL:     d.JWT.AccessTTL,
			SigningMethod: d.JWT.SigningMethod,
			Leeway:        d.JWT.Leeway,
		},
		Cache: cacheConfig{Enabled: d.Cache.Enabled, TTL: d.Cache.TTL, MaxEntries: d.Cache.MaxEntries},
		RateLimit: rateLimitConfig{
			Rules:      rules,
			IP:         rateRule{MaxAttempts: d.RateLimit.IP.MaxAttempts, Window: d.RateLimit.IP.Window},
			IPThrottle: d.RateLimit.EnableIPThrottle,
		},
		Captcha: captchaConfig{
			Enabled:          d.Captcha.Enabled,
			FailureThreshold: d.Captcha.FailureThreshold,
			FailureWindow:    d.Captcha.FailureWindow,
			ChallengeTTL:     d.Captcha.ChallengeTTL,
			MaxOperand:       d.Captcha.MaxOperand,
		},
		Verification: verificationConfig{
			CodeTTL:     d.Verification.CodeTTL,
			CodeLength:  d.Verification.CodeLength,
			MaxAttempts: d.Verification.MaxAttempts,
		},
		Store:   storeConfig{KeyPrefix: "authgate", OperationTimeout: d.Store.OperationTimeout},
		Audit:   auditConfig{BufferSize: d.Audit.BufferSize},
		Metrics: metricsConfig{Enabled: d.Metrics.Enabled},
	}
}

// loadConfig layers defaults, the discovered file and AUTHGATE_* variables.
// It returns the path that was read, or "" when no file was found.
func loadConfig(explicit string, getenv func(string) string) (*fileConfig, string, error) {
	cfg := defaultFileConfig()

	path := discoverConfigFile(explicit, getenv)
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, "", fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg, getenv); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func discoverConfigFile(explicit string, getenv func(string) string) string {
	if explicit != "" {
		return explicit
	}
	if p := getenv(configEnv); p != "" {
		return p
	}
	for _, p := range configCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// decodeFile picks the format by extension and rejects unknown keys.
func decodeFile(path string, cfg *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

func applyEnvOverrides(cfg *fileConfig, getenv func(string) string) error {
	if v := getenv("AUTHGATE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv("AUTHGATE_REDIS_ADDRS"); v != "" {
		cfg.Redis.Addrs = splitList(v)
	}
	if v := getenv("AUTHGATE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := getenv("AUTHGATE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := getenv("AUTHGATE_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := getenv("AUTHGATE_JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := getenv("AUTHGATE_KEY_PREFIX"); v != "" {
		cfg.Store.KeyPrefix = v
	}
	if v := getenv("AUTHGATE_PRODUCTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTHGATE_PRODUCTION: %w", err)
		}
		cfg.Production = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// engineConfig converts the file form into an authgate.Config, reading key
// files. It does not validate; Build and check-config do.
func (c *fileConfig) engineConfig() (authgate.Config, error) {
	cfg := authgate.DefaultConfig()

	cfg.Security.ProductionMode = c.Production
	cfg.JWT.AccessTTL = c.JWT.AccessTTL
	cfg.JWT.SigningMethod = strings.ToLower(c.JWT.SigningMethod)
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Audience = c.JWT.Audience
	cfg.JWT.Leeway = c.JWT.Leeway
	cfg.JWT.KeyID = c.JWT.KeyID

	switch {
	case c.JWT.Secret != "":
		cfg.JWT.PrivateKey = []byte(c.JWT.Secret)
	case c.JWT.SecretFile != "":
		b, err := readSecretFile(c.JWT.SecretFile)
		if err != nil {
			return authgate.Config{}, fmt.Errorf("jwt.secret_file: %w", err)
		}
		cfg.JWT.PrivateKey = b
	case c.JWT.PrivateKeyFile != "":
		b, err := os.ReadFile(c.JWT.PrivateKeyFile)
		if err != nil {
			return authgate.Config{}, fmt.Errorf("jwt.private_key_file: %w", err)
		}
		cfg.JWT.PrivateKey = b
	}
	if c.JWT.PublicKeyFile != "" {
		b, err := os.ReadFile(c.JWT.PublicKeyFile)
		if err != nil {
			return authgate.Config{}, fmt.Errorf("jwt.public_key_file: %w", err)
		}
		cfg.JWT.PublicKey = b
	}

	cfg.Cache = authgate.CacheConfig{Enabled: c.Cache.Enabled, TTL: c.Cache.TTL, MaxEntries: c.Cache.MaxEntries}

	cfg.RateLimit.Rules = make(map[string]authgate.RateRule, len(c.RateLimit.Rules))
	for action, r := range c.RateLimit.Rules {
		cfg.RateLimit.Rules[action] = authgate.RateRule{MaxAttempts: r.MaxAttempts, Window: r.Window}
	}
	cfg.RateLimit.IP = authgate.RateRule{MaxAttempts: c.RateLimit.IP.MaxAttempts, Window: c.RateLimit.IP.Window}
	cfg.RateLimit.EnableIPThrottle = c.RateLimit.IPThrottle
	cfg.RateLimit.StrictActions = c.RateLimit.Strict

	cfg.Captcha = authgate.CaptchaConfig{
		Enabled:          c.Captcha.Enabled,
		FailureThreshold: c.Captcha.FailureThreshold,
		FailureWindow:    c.Captcha.FailureWindow,
		ChallengeTTL:     c.Captcha.ChallengeTTL,
		MaxOperand:       c.Captcha.MaxOperand,
	}
	cfg.Verification = authgate.VerificationConfig{
		CodeTTL:      c.Verification.CodeTTL,
		CodeLength:   c.Verification.CodeLength,
		MaxAttempts:  c.Verification.MaxAttempts,
		OpenPurposes: c.Verification.OpenPurposes,
	}

	cfg.MultiTenant.TenantHeader = c.Server.TenantHeader
	cfg.Store = authgate.StoreConfig{KeyPrefix: c.Store.KeyPrefix, OperationTimeout: c.Store.OperationTimeout}
	cfg.Audit.Enabled = c.Audit.Sink != ""
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled

	return cfg, nil
}

func readSecretFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(b), nil
}
