package authgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/MrEthical07/authgate/internal/limiters"
	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/internal/revocation"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/password"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider   UserProvider
	tenantProvider TenantProvider
	passwords      PasswordVerifier
	senders        map[Channel]CodeSender
	auditSink      AuditSink
	logger         logr.Logger
	clock          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config:  DefaultConfig(),
		senders: make(map[Channel]CodeSender),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the shared store. Single-node, cluster and failover
// clients are all accepted.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithTenantProvider enables tenant existence and status checks. Without
// one, any non-empty declared tenant is accepted.
func (b *Builder) WithTenantProvider(tp TenantProvider) *Builder {
	b.tenantProvider = tp
	return b
}

// WithPasswordVerifier overrides the default Argon2id verifier.
func (b *Builder) WithPasswordVerifier(pv PasswordVerifier) *Builder {
	b.passwords = pv
	return b
}

// WithCodeSender registers the delivery backend for channel.
func (b *Builder) WithCodeSender(channel Channel, sender CodeSender) *Builder {
	b.senders[channel] = sender
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger logr.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token timestamps and cache expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	for channel, sender := range b.senders {
		if !channel.Valid() {
			return nil, errors.New("unknown code sender channel " + string(channel))
		}
		if sender == nil {
			return nil, errors.New("nil code sender for channel " + string(channel))
		}
	}

	logger := b.logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	now := b.clock
	if now == nil {
		now = time.Now
	}

	passwords := b.passwords
	if passwords == nil {
		ph, err := password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
		passwords = ph
	}
	dummyHash, err := deriveDummyHash(passwords)
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:       cfg.JWT.AccessTTL,
		SigningMethod:   jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:      cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:       cloneBytes(cfg.JWT.PublicKey),
		Issuer:          cfg.JWT.Issuer,
		Audience:        cfg.JWT.Audience,
		Leeway:          cfg.JWT.Leeway,
		MaxFutureIAT:    cfg.JWT.MaxFutureIAT,
		KeyID:           cfg.JWT.KeyID,
		VerifyKeys:      cfg.JWT.VerifyKeys,
		MinSecretLength: cfg.minSecretLength(),
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	var cache revocation.ClaimsCache = revocation.NoCache{}
	if cfg.Cache.Enabled {
		mc, err := revocation.NewMemoryCache(revocation.CacheConfig{MaxEntries: cfg.Cache.MaxEntries})
		if err != nil {
			return nil, err
		}
		cache = mc
	}

	store := kv.New(b.redis, cfg.Store.KeyPrefix, cfg.Store.OperationTimeout)

	rules := make(map[string]rate.Rule, len(cfg.RateLimit.Rules))
	for action, rule := range cfg.RateLimit.Rules {
		rules[action] = rate.Rule{MaxAttempts: rule.MaxAttempts, Window: rule.Window}
	}

	engine := &Engine{
		config:         cfg,
		store:          store,
		jwtManager:     jm,
		registry:       revocation.NewRegistry(revocation.NewStore(store), cache, cfg.Cache.TTL, now),
		captchaStore:   stores.NewCaptchaStore(store),
		codeStore:      stores.NewCodeStore(store, cfg.Verification.MaxAttempts),
		userProvider:   b.userProvider,
		tenantProvider: b.tenantProvider,
		passwords:      passwords,
		dummyHash:      dummyHash,
		senders:        make(map[Channel]CodeSender, len(b.senders)),
		metrics:        NewMetrics(cfg.Metrics),
		logger:         logger,
		now:            now,
	}
	for channel, sender := range b.senders {
		engine.senders[channel] = sender
	}
	engine.rateLimiter = rate.New(store, rate.Config{
		Rules:            rules,
		IP:               rate.Rule{MaxAttempts: cfg.RateLimit.IP.MaxAttempts, Window: cfg.RateLimit.IP.Window},
		EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
		Strict:           cfg.RateLimit.StrictActions,
	})
	engine.captchaFailures = limiters.NewCaptchaFailures(store, limiters.CaptchaConfig{
		Enabled:   cfg.Captcha.Enabled,
		Threshold: cfg.Captcha.FailureThreshold,
		Window:    cfg.Captcha.FailureWindow,
	})
	if b.auditSink != nil {
		engine.audit = audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink, logger)
	}
	engine.flows = engine.newFlows()

	b.built = true

	return engine, nil
}

// deriveDummyHash hashes a throwaway password with the configured verifier's
// own parameters. Verifiers that cannot hash get an empty string, which they
// must reject like any other mismatch.
func deriveDummyHash(pv PasswordVerifier) (string, error) {
	hasher, ok := pv.(PasswordHasher)
	if !ok {
		return "", nil
	}
	seed, err := internal.NewNumericCode(internal.MaxCodeDigits)
	if err != nil {
		return "", err
	}
	h, err := hasher.Hash("authgate-unknown-user-" + seed)
	if err != nil {
		return "", fmt.Errorf("derive dummy password hash: %w", err)
	}
	return h, nil
}
