package authgate

import "errors"

var (
	// ErrInvalidToken covers malformed, badly signed, expired and incomplete tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenBlacklisted means the token was revoked by logout or refresh.
	ErrTokenBlacklisted = errors.New("token revoked")
	// ErrTenantRequired means the request did not declare a tenant.
	ErrTenantRequired = errors.New("tenant required")
	// ErrTenantMismatch means the token belongs to a different tenant than the request.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrTenantNotFound means the declared tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantDisabled means the declared tenant exists but is disabled.
	ErrTenantDisabled = errors.New("tenant disabled")
	// ErrRateLimited means the action budget for the caller is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrCaptchaRequired means a captcha answer must accompany the request.
	ErrCaptchaRequired = errors.New("captcha required")
	// ErrCaptchaInvalid means the captcha answer was wrong, expired or already used.
	ErrCaptchaInvalid = errors.New("captcha invalid")
	// ErrInvalidCode means the one-time code was wrong, expired or already used.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrBadCredentials means the username or password did not match.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrUserDisabled means the user is disabled.
	ErrUserDisabled = errors.New("user disabled")
	// ErrUserNotFound is returned by providers for unknown users. Login reports
	// unknown users as ErrBadCredentials.
	ErrUserNotFound = errors.New("user not found")
	// ErrInternal means a dependency failed and the request was refused.
	ErrInternal = errors.New("internal error")
	// ErrInvalidRequest means required request fields are missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrChannelUnsupported means no CodeSender is registered for the channel.
	ErrChannelUnsupported = errors.New("delivery channel unsupported")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorCode is the stable machine-readable form of an engine error.
type ErrorCode string

const (
	CodeOK                 ErrorCode = ""
	CodeInvalidToken       ErrorCode = "invalid_token"
	CodeTokenBlacklisted   ErrorCode = "token_blacklisted"
	CodeTenantRequired     ErrorCode = "tenant_required"
	CodeTenantMismatch     ErrorCode = "tenant_mismatch"
	CodeTenantNotFound     ErrorCode = "tenant_not_found"
	CodeTenantDisabled     ErrorCode = "tenant_disabled"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeCaptchaRequired    ErrorCode = "captcha_required"
	CodeCaptchaInvalid     ErrorCode = "captcha_invalid"
	CodeInvalidCode        ErrorCode = "invalid_code"
	CodeBadCredentials     ErrorCode = "bad_credentials"
	CodeUserDisabled       ErrorCode = "user_disabled"
	CodeUserNotFound       ErrorCode = "user_not_found"
	CodeInvalidRequest     ErrorCode = "invalid_request"
	CodeChannelUnsupported ErrorCode = "channel_unsupported"
	CodeInternal           ErrorCode = "internal_error"
)

var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidToken, CodeInvalidToken},
	{ErrTokenBlacklisted, CodeTokenBlacklisted},
	{ErrTenantRequired, CodeTenantRequired},
	{ErrTenantMismatch, CodeTenantMismatch},
	{ErrTenantNotFound, CodeTenantNotFound},
	{ErrTenantDisabled, CodeTenantDisabled},
	{ErrRateLimited, CodeRateLimited},
	{ErrCaptchaRequired, CodeCaptchaRequired},
	{ErrCaptchaInvalid, CodeCaptchaInvalid},
	{ErrInvalidCode, CodeInvalidCode},
	{ErrBadCredentials, CodeBadCredentials},
	{ErrUserDisabled, CodeUserDisabled},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrChannelUnsupported, CodeChannelUnsupported},
}

// CodeOf maps err to its stable code. Unrecognized errors map to CodeInternal
// and nil maps to CodeOK.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// Message is the client-safe text for c.
func (c ErrorCode) Message() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidToken:
		return "The access token is invalid or expired."
	case CodeTokenBlacklisted:
		return "The access token has been revoked."
	case CodeTenantRequired:
		return "A tenant must be specified."
	case CodeTenantMismatch:
		return "The access token does not belong to this tenant."
	case CodeTenantNotFound:
		return "Unknown tenant."
	case CodeTenantDisabled:
		return "The tenant is disabled."
	case CodeRateLimited:
		return "Too many attempts. Try again later."
	case CodeCaptchaRequired:
		return "A captcha answer is required."
	case CodeCaptchaInvalid:
		return "The captcha answer is incorrect or expired."
	case CodeInvalidCode:
		return "The verification code is incorrect or expired."
	case CodeBadCredentials:
		return "Invalid username or password."
	case CodeUserDisabled:
		return "The account is disabled."
	case CodeUserNotFound:
		return "Unknown user."
	case CodeInvalidRequest:
		return "The request is missing required fields."
	case CodeChannelUnsupported:
		return "The delivery channel is not supported."
	default:
		return "Internal error."
	}
}
