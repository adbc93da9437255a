package internaldefs

import (
	"github.com/MrEthical07/authgate"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported alongside the engine counters.
const (
	AuditDroppedName = "authgate_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful logins."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed logins of any kind."},
	{ID: authgate.MetricLoginRateLimited, Name: "authgate_login_rate_limited_total", Help: "Logins denied by the rate limiter."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Tokens revoked by logout."},
	{ID: authgate.MetricValidateSuccess, Name: "authgate_validate_success_total", Help: "Accepted token validations."},
	{ID: authgate.MetricValidateFailure, Name: "authgate_validate_failure_total", Help: "Rejected token validations."},
	{ID: authgate.MetricValidateCacheHit, Name: "authgate_validate_cache_hit_total", Help: "Validations answered from the claims cache."},
	{ID: authgate.MetricValidateCacheMiss, Name: "authgate_validate_cache_miss_total", Help: "Validations that parsed the token."},
	{ID: authgate.MetricTokenBlacklisted, Name: "authgate_token_blacklisted_total", Help: "Presented tokens found on the blacklist."},
	{ID: authgate.MetricTenantMismatch, Name: "authgate_tenant_mismatch_total", Help: "Tokens presented to a foreign tenant."},
	{ID: authgate.MetricTenantRejected, Name: "authgate_tenant_rejected_total", Help: "Requests for unknown or disabled tenants."},
	{ID: authgate.MetricRateLimitHit, Name: "authgate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: authgate.MetricCaptchaRequired, Name: "authgate_captcha_required_total", Help: "Logins refused for a missing captcha."},
	{ID: authgate.MetricCaptchaIssued, Name: "authgate_captcha_issued_total", Help: "Captcha challenges issued."},
	{ID: authgate.MetricCaptchaPassed, Name: "authgate_captcha_passed_total", Help: "Correct captcha answers."},
	{ID: authgate.MetricCaptchaFailed, Name: "authgate_captcha_failed_total", Help: "Wrong, expired or reused captcha answers."},
	{ID: authgate.MetricCodeSent, Name: "authgate_code_sent_total", Help: "One-time codes delivered."},
	{ID: authgate.MetricCodeSuppressed, Name: "authgate_code_suppressed_total", Help: "Code requests for unknown addresses answered without sending."},
	{ID: authgate.MetricCodeVerified, Name: "authgate_code_verified_total", Help: "One-time codes accepted."},
	{ID: authgate.MetricCodeRejected, Name: "authgate_code_rejected_total", Help: "One-time codes rejected."},
	{ID: authgate.MetricStoreUnavailable, Name: "authgate_store_unavailable_total", Help: "Requests refused because the store failed."},
}

var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricValidateLatency, Name: "authgate_validate_latency_seconds", Help: "Token validation latency."},
}

// UpperBounds are the finite bucket bounds in seconds; the last bucket is +Inf.
var UpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
