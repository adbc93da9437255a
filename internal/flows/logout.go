package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authgate/internal/revocation"
)

// LogoutDeps wires the logout flow.
type LogoutDeps struct {
	Validate func(ctx context.Context, token, declaredTenant string) ValidateResult
	Revoke   func(ctx context.Context, tokenHash, tenantID string, expiresAt time.Time) error
}

// LogoutResult is the outcome of RunLogout.
type LogoutResult struct {
	Claims    revocation.Claims
	TokenHash string
	Failure   Failure
	Err       error
}

// RunLogout validates the token and revokes it.
func RunLogout(ctx context.Context, token, declaredTenant string, deps LogoutDeps) LogoutResult {
	v := deps.Validate(ctx, token, declaredTenant)
	res := LogoutResult{Claims: v.Claims, TokenHash: v.TokenHash}
	if v.Failure != FailureNone {
		res.Failure, res.Err = v.Failure, v.Err
		return res
	}

	if err := deps.Revoke(ctx, v.TokenHash, v.Claims.TenantID, v.Claims.ExpiresAt); err != nil {
		res.Failure, res.Err = FailureInternal, err
	}
	return res
}
