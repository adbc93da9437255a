package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/internal/revocation"
)

// LoginUser is the flow-local view of a user record.
type LoginUser struct {
	UserID       int64
	Username     string
	PasswordHash string
	Disabled     bool
}

// LoginInput is one login attempt.
type LoginInput struct {
	TenantID      string
	Username      string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
	ClientIP      string
}

// IssuedToken is a signed token plus the claims embedded in it.
type IssuedToken struct {
	Token  string
	Claims revocation.Claims
}

// LoginDeps wires the login flow.
type LoginDeps struct {
	Action         string
	CaptchaEnabled bool

	TenantActive    func(ctx context.Context, tenantID string) (Failure, error)
	EnforceRate     func(ctx context.Context, action, tenantID, identifier, ip string) error
	CaptchaRequired func(ctx context.Context, action, tenantID, identifier string) (bool, error)
	VerifyCaptcha   func(ctx context.Context, captchaID, answer string) (bool, error)
	// RecordFailure and ResetFailures are bookkeeping; they must not fail the flow.
	RecordFailure  func(ctx context.Context, action, tenantID, identifier string)
	ResetFailures  func(ctx context.Context, action, tenantID, identifier string)
	LookupUser     func(ctx context.Context, tenantID, username string) (LoginUser, error)
	IsUserNotFound func(error) bool
	VerifyPassword func(password, encodedHash string) (bool, error)
	// DummyHash is verified against when the user does not exist so that
	// unknown and known usernames cost the same.
	DummyHash string
	Issue     func(tenantID string, userID int64, username string) (IssuedToken, error)
}

// LoginResult is the outcome of RunLogin.
type LoginResult struct {
	Issued  IssuedToken
	UserID  int64
	Failure Failure
	Err     error
}

// RunLogin walks tenant → rate limit → captcha gate → credentials → token.
// Every failure past the tenant check feeds the captcha failure counter.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	if in.TenantID == "" {
		return LoginResult{Failure: FailureTenantRequired}
	}
	if failure, err := deps.TenantActive(ctx, in.TenantID); failure != FailureNone {
		return LoginResult{Failure: failure, Err: err}
	}

	fail := func(f Failure, err error) LoginResult {
		deps.RecordFailure(ctx, deps.Action, in.TenantID, in.Username)
		return LoginResult{Failure: f, Err: err}
	}

	if err := deps.EnforceRate(ctx, deps.Action, in.TenantID, in.Username, in.ClientIP); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return fail(FailureRateLimited, nil)
		}
		return LoginResult{Failure: FailureInternal, Err: err}
	}

	if deps.CaptchaEnabled {
		required, err := deps.CaptchaRequired(ctx, deps.Action, in.TenantID, in.Username)
		if err != nil {
			return LoginResult{Failure: FailureInternal, Err: err}
		}
		if required {
			if in.CaptchaID == "" {
				return fail(FailureCaptchaRequired, nil)
			}
			ok, err := deps.VerifyCaptcha(ctx, in.CaptchaID, in.CaptchaAnswer)
			if err != nil {
				return LoginResult{Failure: FailureInternal, Err: err}
			}
			if !ok {
				return fail(FailureCaptchaInvalid, nil)
			}
		}
	}

	if in.Username == "" || in.Password == "" {
		return fail(FailureBadCredentials, nil)
	}

	user, err := deps.LookupUser(ctx, in.TenantID, in.Username)
	if err != nil {
		if deps.IsUserNotFound(err) {
			_, _ = deps.VerifyPassword(in.Password, deps.DummyHash)
			return fail(FailureUserNotFound, nil)
		}
		return LoginResult{Failure: FailureInternal, Err: err}
	}

	ok, err := deps.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil || !ok {
		res := fail(FailureBadCredentials, nil)
		res.UserID = user.UserID
		return res
	}
	if user.Disabled {
		res := fail(FailureUserDisabled, nil)
		res.UserID = user.UserID
		return res
	}

	issued, err := deps.Issue(in.TenantID, user.UserID, user.Username)
	if err != nil {
		return LoginResult{Failure: FailureInternal, Err: err, UserID: user.UserID}
	}

	deps.ResetFailures(ctx, deps.Action, in.TenantID, in.Username)
	return LoginResult{Issued: issued, UserID: user.UserID}
}
