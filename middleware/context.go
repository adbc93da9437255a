package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authgate"
)

// Config controls how requests are mapped onto engine context.
type Config struct {
	// TenantHeader carries the declared tenant. Defaults to X-Tenant-ID.
	TenantHeader string
	// TrustForwardedFor takes the client IP from the first X-Forwarded-For
	// entry. Enable only behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.TenantHeader) == "" {
		c.TenantHeader = "X-Tenant-ID"
	}
	return c
}

// RequestContext attaches the declared tenant, client IP and user agent to
// the request context. It never rejects a request.
func RequestContext(cfg Config) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tenantID := strings.TrimSpace(r.Header.Get(cfg.TenantHeader)); tenantID != "" {
				ctx = authgate.WithTenantID(ctx, tenantID)
			}
			if ip := clientIP(r, cfg.TrustForwardedFor); ip != "" {
				ctx = authgate.WithClientIP(ctx, ip)
			}
			if ua := r.UserAgent(); ua != "" {
				ctx = authgate.WithUserAgent(ctx, ua)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}
