package security

import (
	"strings"
	"testing"
	"time"
)

func hardened() ReportInput {
	return ReportInput{
		ProductionMode:    true,
		SigningAlgorithm:  "hs256",
		SecretLength:      48,
		AccessTTL:         time.Hour,
		Leeway:            30 * time.Second,
		CacheEnabled:      true,
		CaptchaEnabled:    true,
		CaptchaThreshold:  3,
		IPThrottleEnabled: true,
		RuleActions:       []string{"refresh", "login"},
		KnownActions:      []string{"login", "refresh"},
		CodeLength:        6,
		CodeMaxAttempts:   5,
		AuditEnabled:      true,
	}
}

func TestBuildReportHardenedHasNoWarnings(t *testing.T) {
	r := BuildReport(hardened())
	if len(r.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", r.Warnings)
	}
	if strings.Join(r.RateLimitedActions, ",") != "login,refresh" {
		t.Fatalf("actions not sorted: %v", r.RateLimitedActions)
	}
}

func TestBuildReportWarnings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ReportInput)
		want   string
	}{
		{"dev mode", func(in *ReportInput) { in.ProductionMode = false }, "production mode is off"},
		{"short secret", func(in *ReportInput) { in.SecretLength = 16 }, "hs256 secret is 16 bytes"},
		{"long ttl", func(in *ReportInput) { in.AccessTTL = 48 * time.Hour }, "access tokens live"},
		{"leeway", func(in *ReportInput) { in.Leeway = 5 * time.Minute }, "clock leeway"},
		{"captcha", func(in *ReportInput) { in.CaptchaEnabled = false }, "captcha escalation is disabled"},
		{"ip", func(in *ReportInput) { in.IPThrottleEnabled = false }, "per-IP throttling"},
		{"missing rule", func(in *ReportInput) { in.RuleActions = []string{"login"} }, `action "refresh" has no rate limit`},
		{"short code", func(in *ReportInput) { in.CodeLength = 4 }, "4 digits"},
		{"audit", func(in *ReportInput) { in.AuditEnabled = false }, "audit is disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := hardened()
			tc.mutate(&in)
			r := BuildReport(in)
			if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], tc.want) {
				t.Fatalf("want one warning containing %q, got %v", tc.want, r.Warnings)
			}
		})
	}
}

func TestBuildReportStrictActionsSkipsMissingRules(t *testing.T) {
	in := hardened()
	in.RuleActions = nil
	in.StrictActions = true
	if r := BuildReport(in); len(r.Warnings) != 0 {
		t.Fatalf("strict mode rejects unlisted actions; got %v", r.Warnings)
	}
}

func TestBuildReportEd25519IgnoresSecretLength(t *testing.T) {
	in := hardened()
	in.SigningAlgorithm = "ed25519"
	in.SecretLength = 0
	if r := BuildReport(in); len(r.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", r.Warnings)
	}
}
