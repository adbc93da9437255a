package flows

// Failure classifies why a flow stopped. FailureNone means success.
type Failure uint8

const (
	FailureNone Failure = iota
	FailureInvalidToken
	FailureBlacklisted
	FailureTenantRequired
	FailureTenantMismatch
	FailureTenantNotFound
	FailureTenantDisabled
	FailureRateLimited
	FailureCaptchaRequired
	FailureCaptchaInvalid
	FailureBadCredentials
	FailureUserNotFound
	FailureUserDisabled
	FailureInternal
)

var failureNames = [...]string{
	FailureNone:            "none",
	FailureInvalidToken:    "invalid_token",
	FailureBlacklisted:     "token_blacklisted",
	FailureTenantRequired:  "tenant_required",
	FailureTenantMismatch:  "tenant_mismatch",
	FailureTenantNotFound:  "tenant_not_found",
	FailureTenantDisabled:  "tenant_disabled",
	FailureRateLimited:     "rate_limited",
	FailureCaptchaRequired: "captcha_required",
	FailureCaptchaInvalid:  "captcha_invalid",
	FailureBadCredentials:  "bad_credentials",
	FailureUserNotFound:    "user_not_found",
	FailureUserDisabled:    "user_disabled",
	FailureInternal:        "internal",
}

func (f Failure) String() string {
	if int(f) < len(failureNames) {
		return failureNames[f]
	}
	return "unknown"
}
