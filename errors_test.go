package authgate

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{nil, CodeOK},
		{ErrTokenBlacklisted, CodeTokenBlacklisted},
		{fmt.Errorf("wrapped: %w", ErrTenantMismatch), CodeTenantMismatch},
		{ErrUserNotFound, CodeUserNotFound},
		{errors.New("boom"), CodeInternal},
		{ErrInternal, CodeInternal},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.want {
			t.Fatalf("CodeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestEverySentinelHasADistinctMessage(t *testing.T) {
	seen := make(map[string]ErrorCode)
	for _, ec := range errorCodes {
		msg := ec.code.Message()
		if msg == CodeInternal.Message() {
			t.Fatalf("%q falls back to the internal message", ec.code)
		}
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%q and %q share message %q", prev, ec.code, msg)
		}
		seen[msg] = ec.code
	}
}
