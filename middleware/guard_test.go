package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authgate"
)

type fakeVerifier struct {
	tokens map[string]authgate.Principal
	err    error
}

func (f fakeVerifier) Verify(ctx context.Context, token string) (authgate.Principal, error) {
	if f.err != nil {
		return authgate.Principal{}, f.err
	}
	p, ok := f.tokens[token]
	if !ok {
		return authgate.Principal{}, authgate.ErrInvalidToken
	}
	tenantID, _ := authgate.TenantIDFromContext(ctx)
	if tenantID != p.TenantID {
		return authgate.Principal{}, authgate.ErrTenantMismatch
	}
	return p, nil
}

func echoPrincipal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "no principal", http.StatusInternalServerError)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	})
}

func TestGuard(t *testing.T) {
	v := fakeVerifier{tokens: map[string]authgate.Principal{
		"tok-a": {TenantID: "t1", UserID: 7, Username: "alice"},
	}}
	h := Guard(v, Config{})(echoPrincipal())

	cases := []struct {
		name     string
		tenant   string
		auth     string
		status   int
		wantCode authgate.ErrorCode
	}{
		{"missing tenant", "", "Bearer tok-a", http.StatusBadRequest, authgate.CodeTenantRequired},
		{"missing token", "t1", "", http.StatusUnauthorized, authgate.CodeInvalidToken},
		{"wrong scheme", "t1", "Basic tok-a", http.StatusUnauthorized, authgate.CodeInvalidToken},
		{"unknown token", "t1", "Bearer nope", http.StatusUnauthorized, authgate.CodeInvalidToken},
		{"other tenant", "t2", "Bearer tok-a", http.StatusForbidden, authgate.CodeTenantMismatch},
		{"ok", "t1", "bearer  tok-a ", http.StatusOK, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.tenant != "" {
			req.Header.Set("X-Tenant-ID", tc.tenant)
		}
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if tc.wantCode == "" {
			var p authgate.Principal
			if err := json.NewDecoder(rec.Body).Decode(&p); err != nil || p.UserID != 7 {
				t.Fatalf("%s: unexpected body %q err=%v", tc.name, rec.Body.String(), err)
			}
			continue
		}
		var body ErrorBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body.Error != tc.wantCode || body.Message == "" {
			t.Fatalf("%s: unexpected body %+v", tc.name, body)
		}
	}
}

func TestGuardStoreFailureIsServerError(t *testing.T) {
	h := Guard(fakeVerifier{err: authgate.ErrInternal}, Config{TenantHeader: "X-Org"})(echoPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Org", "t1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequestContextClientIP(t *testing.T) {
	var got string
	h := RequestContext(Config{TrustForwardedFor: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientIP(r, true)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.9" {
		t.Fatalf("expected forwarded IP, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if ip := clientIP(req, false); ip != "10.0.0.1" {
		t.Fatalf("untrusted header must be ignored, got %q", ip)
	}
}

func TestStatusForCoversEveryCode(t *testing.T) {
	for _, code := range []authgate.ErrorCode{
		authgate.CodeTenantRequired, authgate.CodeRateLimited, authgate.CodeCaptchaRequired,
		authgate.CodeTenantNotFound, authgate.CodeTokenBlacklisted,
	} {
		if StatusFor(code) == http.StatusInternalServerError {
			t.Fatalf("%q mapped to 500", code)
		}
	}
	if StatusFor(authgate.CodeInternal) != http.StatusInternalServerError {
		t.Fatal("internal errors must map to 500")
	}
}
