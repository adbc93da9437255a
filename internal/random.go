package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// Bounds on numeric code width.
const (
	MinCodeDigits = 4
	MaxCodeDigits = 10
)

// ErrInvalidDigits is returned by NewNumericCode for widths outside
// MinCodeDigits..MaxCodeDigits.
var ErrInvalidDigits = errors.New("invalid code digits")

// NewNumericCode returns a zero-padded numeric code of the given width.
func NewNumericCode(digits int) (string, error) {
	if digits < MinCodeDigits || digits > MaxCodeDigits {
		return "", ErrInvalidDigits
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// RandomIntn returns a uniform value in [0, n).
func RandomIntn(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("invalid random bound")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// HashToken returns the lowercase hex SHA-256 digest of a token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashSecret digests a short-lived secret (verification code) for storage.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
