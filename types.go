package authgate

import (
	"context"
	"strings"
	"time"
)

// Principal identifies an authenticated caller. It is embedded in every
// token and never changes for the token's lifetime.
type Principal struct {
	TenantID string `json:"tenant_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// TenantStatus is the lifecycle state reported by a [TenantProvider].
type TenantStatus uint8

const (
	TenantActive TenantStatus = iota
	TenantDisabled
)

// Tenant is a registered tenant.
type Tenant struct {
	ID     string
	Name   string
	Status TenantStatus
}

// TenantProvider resolves tenants. Implementations return [ErrTenantNotFound]
// (or an error wrapping it) for unknown ids.
type TenantProvider interface {
	GetTenant(ctx context.Context, tenantID string) (Tenant, error)
}

// UserStatus is the lifecycle state of a user record.
type UserStatus uint8

const (
	UserActive UserStatus = iota
	UserDisabled
)

// UserRecord is what the engine needs to know about a user.
type UserRecord struct {
	UserID       int64
	TenantID     string
	Username     string
	PasswordHash string
	Email        string
	Phone        string
	Status       UserStatus
}

// UserProvider resolves users within a tenant. Implementations return
// [ErrUserNotFound] (or an error wrapping it) for unknown users.
type UserProvider interface {
	GetUserByUsername(ctx context.Context, tenantID, username string) (UserRecord, error)
	GetUserByAddress(ctx context.Context, tenantID string, channel Channel, address string) (UserRecord, error)
}

// PasswordVerifier checks a plaintext password against a stored encoded hash.
type PasswordVerifier interface {
	Verify(password, encodedHash string) (bool, error)
}

// PasswordHasher is implemented by verifiers that can also produce hashes.
// Login uses it once at build time to derive the hash that unknown
// usernames are verified against.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Channel is a delivery channel for one-time codes.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

// Normalize puts address into the form used for keys and directory lookups:
// emails are lowercased, phone numbers lose spaces, dashes, dots and
// parentheses.
func (c Channel) Normalize(address string) string {
	address = strings.TrimSpace(address)
	switch c {
	case ChannelEmail:
		return strings.ToLower(address)
	case ChannelPhone:
		return strings.Map(func(r rune) rune {
			switch r {
			case ' ', '-', '(', ')', '.':
				return -1
			}
			return r
		}, address)
	}
	return address
}

// CodeSender delivers a one-time code to an address.
type CodeSender interface {
	SendCode(ctx context.Context, address, code string) error
}

// LoginRequest carries credentials and, when the captcha gate is active, the
// answer to a previously issued challenge. The tenant and client IP come from
// the context.
type LoginRequest struct {
	Username      string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
}

// LoginResult is returned by a successful Login or Refresh.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Principal   Principal `json:"principal"`
}

// CaptchaChallenge is handed to the client. The answer stays server side.
type CaptchaChallenge struct {
	CaptchaID string    `json:"captcha_id"`
	Question  string    `json:"question"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeRequest asks for a one-time code to be sent.
type CodeRequest struct {
	Purpose string
	Channel Channel
	Address string
}

// CodeCheck verifies a previously sent code.
type CodeCheck struct {
	Purpose string
	Channel Channel
	Address string
	Code    string
}
