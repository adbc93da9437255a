package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/authgate"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   authgate.ErrorCode `json:"error"`
	Message string             `json:"message"`
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code authgate.ErrorCode) int {
	switch code {
	case authgate.CodeOK:
		return http.StatusOK
	case authgate.CodeTenantRequired, authgate.CodeInvalidRequest, authgate.CodeChannelUnsupported,
		authgate.CodeCaptchaInvalid, authgate.CodeInvalidCode:
		return http.StatusBadRequest
	case authgate.CodeInvalidToken, authgate.CodeTokenBlacklisted, authgate.CodeBadCredentials:
		return http.StatusUnauthorized
	case authgate.CodeTenantMismatch, authgate.CodeTenantDisabled, authgate.CodeUserDisabled,
		authgate.CodeCaptchaRequired:
		return http.StatusForbidden
	case authgate.CodeTenantNotFound, authgate.CodeUserNotFound:
		return http.StatusNotFound
	case authgate.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as an [ErrorBody] with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	code := authgate.CodeOf(err)
	if code == authgate.CodeOK {
		code = authgate.CodeInternal
	}
	WriteJSON(w, StatusFor(code), ErrorBody{Error: code, Message: code.Message()})
}

// WriteJSON writes v with status. Encoding failures are not reported; the
// header is already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
