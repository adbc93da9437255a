package security

import (
	"fmt"
	"sort"
	"time"
)

// Report summarizes the security-relevant posture of one configuration.
type Report struct {
	ProductionMode     bool
	SigningAlgorithm   string
	SecretLength       int
	AccessTTL          time.Duration
	Leeway             time.Duration
	CacheEnabled       bool
	CaptchaEnabled     bool
	CaptchaThreshold   int
	IPThrottleEnabled  bool
	RateLimitedActions []string
	StrictActions      bool
	CodeLength         int
	CodeMaxAttempts    int
	AuditEnabled       bool
	Warnings           []string
}

type ReportInput struct {
	ProductionMode    bool
	SigningAlgorithm  string
	SecretLength      int
	AccessTTL         time.Duration
	Leeway            time.Duration
	CacheEnabled      bool
	CaptchaEnabled    bool
	CaptchaThreshold  int
	IPThrottleEnabled bool
	// RuleActions are the actions with a configured budget.
	RuleActions []string
	// KnownActions are the actions the engine rate limits.
	KnownActions    []string
	StrictActions   bool
	CodeLength      int
	CodeMaxAttempts int
	AuditEnabled    bool
}

const (
	recommendedSecretBytes = 32
	recommendedCodeLength  = 6
	maxAccessTTL           = 24 * time.Hour
	maxLeeway              = time.Minute
)

func BuildReport(in ReportInput) Report {
	actions := append([]string(nil), in.RuleActions...)
	sort.Strings(actions)

	r := Report{
		ProductionMode:     in.ProductionMode,
		SigningAlgorithm:   in.SigningAlgorithm,
		SecretLength:       in.SecretLength,
		AccessTTL:          in.AccessTTL,
		Leeway:             in.Leeway,
		CacheEnabled:       in.CacheEnabled,
		CaptchaEnabled:     in.CaptchaEnabled,
		CaptchaThreshold:   in.CaptchaThreshold,
		IPThrottleEnabled:  in.IPThrottleEnabled,
		RateLimitedActions: actions,
		StrictActions:      in.StrictActions,
		CodeLength:         in.CodeLength,
		CodeMaxAttempts:    in.CodeMaxAttempts,
		AuditEnabled:       in.AuditEnabled,
	}

	warn := func(format string, args ...any) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	}
	if !in.ProductionMode {
		warn("production mode is off: secret strength is not enforced")
	}
	if in.SigningAlgorithm == "hs256" && in.SecretLength < recommendedSecretBytes {
		warn("hs256 secret is %d bytes, want at least %d", in.SecretLength, recommendedSecretBytes)
	}
	if in.AccessTTL > maxAccessTTL {
		warn("access tokens live %s; revocation entries are kept as long", in.AccessTTL)
	}
	if in.Leeway > maxLeeway {
		warn("clock leeway %s exceeds %s", in.Leeway, maxLeeway)
	}
	if !in.CaptchaEnabled {
		warn("captcha escalation is disabled")
	}
	if !in.IPThrottleEnabled {
		warn("per-IP throttling is disabled")
	}
	if !in.StrictActions {
		have := make(map[string]bool, len(in.RuleActions))
		for _, a := range in.RuleActions {
			have[a] = true
		}
		for _, a := range in.KnownActions {
			if !have[a] {
				warn("action %q has no rate limit", a)
			}
		}
	}
	if in.CodeLength > 0 && in.CodeLength < recommendedCodeLength {
		warn("one-time codes have %d digits, want at least %d", in.CodeLength, recommendedCodeLength)
	}
	if !in.AuditEnabled {
		warn("audit is disabled")
	}
	return r
}
