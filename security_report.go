package authgate

import (
	"github.com/MrEthical07/authgate/internal/security"
)

// SecurityReport is an advisory summary of a configuration's posture.
type SecurityReport = security.Report

// rateLimitedActions are the actions the engine calls the limiter for.
var rateLimitedActions = []string{ActionLogin, ActionSendCode, ActionVerifyCode, ActionCaptcha, ActionRefresh}

// BuildSecurityReport reports on cfg without validating it.
func BuildSecurityReport(cfg Config) SecurityReport {
	rules := make([]string, 0, len(cfg.RateLimit.Rules))
	for action := range cfg.RateLimit.Rules {
		rules = append(rules, action)
	}

	secretLen := 0
	if cfg.JWT.SigningMethod == "hs256" {
		secretLen = len(cfg.JWT.PrivateKey)
	}

	return security.BuildReport(security.ReportInput{
		ProductionMode:    cfg.Security.ProductionMode,
		SigningAlgorithm:  cfg.JWT.SigningMethod,
		SecretLength:      secretLen,
		AccessTTL:         cfg.JWT.AccessTTL,
		Leeway:            cfg.JWT.Leeway,
		CacheEnabled:      cfg.Cache.Enabled,
		CaptchaEnabled:    cfg.Captcha.Enabled,
		CaptchaThreshold:  cfg.Captcha.FailureThreshold,
		IPThrottleEnabled: cfg.RateLimit.EnableIPThrottle,
		RuleActions:       rules,
		KnownActions:      rateLimitedActions,
		StrictActions:     cfg.RateLimit.StrictActions,
		CodeLength:        cfg.Verification.CodeLength,
		CodeMaxAttempts:   cfg.Verification.MaxAttempts,
		AuditEnabled:      cfg.Audit.Enabled,
	})
}

// SecurityReport reports on the engine's running configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	return BuildSecurityReport(e.config)
}
