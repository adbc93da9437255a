package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authgate"
)

// Verifier validates a bearer token for the tenant declared in ctx.
// *authgate.Engine satisfies it.
type Verifier interface {
	Verify(ctx context.Context, token string) (authgate.Principal, error)
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal injected by [Guard].
func PrincipalFromContext(ctx context.Context) (authgate.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(authgate.Principal)
	return p, ok
}

// Guard rejects requests without a declared tenant (400) or without a valid
// bearer token for that tenant (401/403), and injects the principal for
// the next handler. Guard includes [RequestContext].
func Guard(v Verifier, cfg Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				WriteError(w, authgate.ErrEngineNotReady)
				return
			}
			if _, ok := authgate.TenantIDFromContext(r.Context()); !ok {
				WriteError(w, authgate.ErrTenantRequired)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, authgate.ErrInvalidToken)
				return
			}

			p, err := v.Verify(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return RequestContext(cfg)(guarded)
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
