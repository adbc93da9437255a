package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/internal/kv"
	"github.com/MrEthical07/authgate/internal/limiters"
	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/internal/revocation"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/go-logr/logr"
)

// Engine is the authentication core. It is safe for concurrent use.
type Engine struct {
	config          Config
	store           *kv.Store
	jwtManager      *jwt.Manager
	registry        *revocation.Registry
	rateLimiter     *rate.Limiter
	captchaFailures *limiters.CaptchaFailures
	captchaStore    *stores.CaptchaStore
	codeStore       *stores.CodeStore
	flows           flows.Service
	audit           *audit.Dispatcher
	metrics         *Metrics
	logger          logr.Logger
	now             func() time.Time
	userProvider    UserProvider
	tenantProvider  TenantProvider
	passwords       PasswordVerifier
	dummyHash       string
	senders         map[Channel]CodeSender
}

// Close drains the audit dispatcher and releases the validation cache.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.registry != nil {
		e.registry.Close()
	}
}

// AuditDropped reports audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the lifetime of issued access tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.TTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login authenticates a user of the declared tenant and issues a token.
// Failures past the tenant check count toward the captcha threshold.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	tenantID, _ := TenantIDFromContext(ctx)

	res := e.flows.Login(ctx, flows.LoginInput{
		TenantID:      tenantID,
		Username:      req.Username,
		Password:      req.Password,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
		ClientIP:      clientIPFromContext(ctx),
	})
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricLoginFailure)
		switch res.Failure {
		case flows.FailureRateLimited:
			e.metricInc(MetricLoginRateLimited)
		case flows.FailureCaptchaRequired:
			e.metricInc(MetricCaptchaRequired)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, err, auditFields{
			tenantID: tenantID,
			userID:   res.UserID,
			subject:  req.Username,
			metadata: map[string]string{"reason": res.Failure.String()},
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, nil, auditFields{
		tenantID:  tenantID,
		userID:    res.UserID,
		subject:   req.Username,
		tokenHash: internal.HashToken(res.Issued.Token),
	})
	return newLoginResult(res.Issued), nil
}

// Verify validates a bearer token for the declared tenant and returns its
// principal. Revocation is checked before the cache on every call.
func (e *Engine) Verify(ctx context.Context, token string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}
	start := time.Now()
	tenantID, _ := TenantIDFromContext(ctx)

	res := e.flows.Validate(ctx, token, tenantID)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	switch {
	case res.CacheHit:
		e.metricInc(MetricValidateCacheHit)
	case res.TokenHash != "" && res.Failure != flows.FailureBlacklisted:
		e.metricInc(MetricValidateCacheMiss)
	}
	if res.Failure != flows.FailureNone {
		e.metricInc(MetricValidateFailure)
		if res.Failure == flows.FailureBlacklisted {
			e.metricInc(MetricTokenBlacklisted)
			e.emitAudit(ctx, auditEventTokenBlacklisted, false, ErrTokenBlacklisted, auditFields{
				tenantID:  tenantID,
				tokenHash: res.TokenHash,
			})
		}
		return Principal{}, e.failureError(res.Failure, res.Err)
	}

	e.metricInc(MetricValidateSuccess)
	return principalOf(res.Claims), nil
}

// Logout revokes the token until its natural expiry.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	tenantID, _ := TenantIDFromContext(ctx)

	res := e.flows.Logout(ctx, token, tenantID)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, err, auditFields{
			tenantID:  tenantID,
			userID:    res.Claims.UserID,
			tokenHash: res.TokenHash,
		})
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, nil, auditFields{
		tenantID:  tenantID,
		userID:    res.Claims.UserID,
		subject:   res.Claims.Username,
		tokenHash: res.TokenHash,
	})
	return nil
}

// Refresh revokes a valid token and issues a fresh one for the same
// principal. If the revocation cannot be written no new token is issued.
func (e *Engine) Refresh(ctx context.Context, token string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	tenantID, _ := TenantIDFromContext(ctx)

	res := e.flows.Refresh(ctx, token, tenantID, clientIPFromContext(ctx))
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, err, auditFields{
			tenantID:  tenantID,
			userID:    res.Old.UserID,
			tokenHash: res.OldHash,
			metadata:  map[string]string{"reason": res.Failure.String()},
		})
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, nil, auditFields{
		tenantID:  tenantID,
		userID:    res.Old.UserID,
		subject:   res.Old.Username,
		tokenHash: res.OldHash,
	})
	return newLoginResult(res.Issued), nil
}

func (e *Engine) newFlows() flows.Service {
	return flows.New(flows.Deps{
		Validate: flows.ValidateDeps{
			HashToken:   internal.HashToken,
			IsRevoked:   e.registry.IsRevoked,
			Cached:      e.registry.Cached,
			Parse:       e.parseToken,
			Remember:    e.registry.Remember,
			GuardTenant: e.guardTenant,
		},
		Login: flows.LoginDeps{
			Action:          ActionLogin,
			CaptchaEnabled:  e.config.Captcha.Enabled,
			TenantActive:    e.tenantActive,
			EnforceRate:     e.enforceRate,
			CaptchaRequired: e.captchaFailures.Required,
			VerifyCaptcha:   e.consumeCaptcha,
			RecordFailure:   e.recordCaptchaFailure,
			ResetFailures:   e.resetCaptchaFailures,
			LookupUser:      e.lookupLoginUser,
			IsUserNotFound:  func(err error) bool { return errors.Is(err, ErrUserNotFound) },
			VerifyPassword:  e.passwords.Verify,
			DummyHash:       e.dummyHash,
			Issue:           e.issueToken,
		},
		Refresh: flows.RefreshDeps{
			Action:      ActionRefresh,
			EnforceRate: e.enforceRate,
			Revoke:      e.revokeToken,
			Issue:       e.issueToken,
		},
		Logout: flows.LogoutDeps{
			Revoke: e.revokeToken,
		},
	})
}

func (e *Engine) parseToken(token string) (revocation.Claims, error) {
	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		e.logger.V(1).Info("token rejected", "error", err.Error())
		return revocation.Claims{}, err
	}
	return claimsOf(claims), nil
}

func (e *Engine) issueToken(tenantID string, userID int64, username string) (flows.IssuedToken, error) {
	token, claims, err := e.jwtManager.Issue(tenantID, userID, username)
	if err != nil {
		return flows.IssuedToken{}, err
	}
	return flows.IssuedToken{Token: token, Claims: claimsOf(claims)}, nil
}

// revokeToken writes the blacklist entry. The registry evicts the cached
// claims whether or not the write succeeds.
func (e *Engine) revokeToken(ctx context.Context, tokenHash, tenantID string, expiresAt time.Time) error {
	written, err := e.registry.Revoke(ctx, tokenHash, tenantID, expiresAt)
	if err != nil {
		return err
	}
	if !written {
		e.logger.V(1).Info("revocation skipped for expired token", "tenant", tenantID)
	}
	return nil
}

func (e *Engine) enforceRate(ctx context.Context, action, tenantID, identifier, ip string) error {
	err := e.rateLimiter.Enforce(ctx, action, tenantID, identifier, ip)
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricRateLimitHit)
	}
	return err
}

func (e *Engine) lookupLoginUser(ctx context.Context, tenantID, username string) (flows.LoginUser, error) {
	user, err := e.userProvider.GetUserByUsername(ctx, tenantID, username)
	if err != nil {
		return flows.LoginUser{}, err
	}
	if user.TenantID != "" && user.TenantID != tenantID {
		return flows.LoginUser{}, ErrUserNotFound
	}
	return flows.LoginUser{
		UserID:       user.UserID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Disabled:     user.Status == UserDisabled,
	}, nil
}

// failureError maps a flow outcome to the public error. Internal causes are
// logged here and never returned to the caller.
func (e *Engine) failureError(f flows.Failure, cause error) error {
	switch f {
	case flows.FailureNone:
		return nil
	case flows.FailureInvalidToken:
		return ErrInvalidToken
	case flows.FailureBlacklisted:
		return ErrTokenBlacklisted
	case flows.FailureTenantRequired:
		return ErrTenantRequired
	case flows.FailureTenantMismatch:
		return ErrTenantMismatch
	case flows.FailureTenantNotFound:
		return ErrTenantNotFound
	case flows.FailureTenantDisabled:
		return ErrTenantDisabled
	case flows.FailureRateLimited:
		return ErrRateLimited
	case flows.FailureCaptchaRequired:
		return ErrCaptchaRequired
	case flows.FailureCaptchaInvalid:
		return ErrCaptchaInvalid
	case flows.FailureBadCredentials, flows.FailureUserNotFound:
		return ErrBadCredentials
	case flows.FailureUserDisabled:
		return ErrUserDisabled
	default:
		e.internalError(cause)
		return ErrInternal
	}
}

func (e *Engine) internalError(cause error) {
	if cause == nil {
		return
	}
	if errors.Is(cause, kv.ErrUnavailable) {
		e.metricInc(MetricStoreUnavailable)
	}
	e.logger.Error(cause, "request failed closed")
}

func claimsOf(c *jwt.Claims) revocation.Claims {
	out := revocation.Claims{
		TenantID: c.TenantID,
		UserID:   c.UserID,
		Username: c.Username,
		TokenID:  c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

func principalOf(c revocation.Claims) Principal {
	return Principal{TenantID: c.TenantID, UserID: c.UserID, Username: c.Username}
}

func newLoginResult(t flows.IssuedToken) *LoginResult {
	return &LoginResult{
		AccessToken: t.Token,
		TokenType:   "Bearer",
		ExpiresAt:   t.Claims.ExpiresAt,
		Principal:   principalOf(t.Claims),
	}
}
