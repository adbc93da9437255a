package internal

import (
	"strings"
	"testing"
)

func TestNewNumericCodeWidth(t *testing.T) {
	for _, digits := range []int{4, 6, 10} {
		code, err := NewNumericCode(digits)
		if err != nil {
			t.Fatalf("NewNumericCode(%d) failed: %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("expected %d digits, got %q", digits, code)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestNewNumericCodeRejectsBadWidth(t *testing.T) {
	for _, digits := range []int{0, 3, 11} {
		if _, err := NewNumericCode(digits); err != ErrInvalidDigits {
			t.Fatalf("expected ErrInvalidDigits for %d, got %v", digits, err)
		}
	}
}

func TestRandomIntnBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		v, err := RandomIntn(10)
		if err != nil {
			t.Fatalf("RandomIntn failed: %v", err)
		}
		if v < 0 || v >= 10 {
			t.Fatalf("value out of range: %d", v)
		}
	}
	if _, err := RandomIntn(0); err == nil {
		t.Fatal("expected error for zero bound")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("header.payload.sig")
	b := HashToken("header.payload.sig")
	if a != b {
		t.Fatal("expected deterministic digest")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashToken("header.payload.sih") {
		t.Fatal("expected different digests for different tokens")
	}
}

func FuzzHashTokenStable(f *testing.F) {
	f.Add("")
	f.Add("a.b.c")
	f.Fuzz(func(t *testing.T, token string) {
		if HashToken(token) != HashToken(token) {
			t.Fatal("digest not stable")
		}
		if len(HashToken(token)) != 64 {
			t.Fatal("unexpected digest length")
		}
	})
}
