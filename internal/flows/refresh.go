package flows

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/internal/revocation"
)

// RefreshDeps wires the refresh flow.
type RefreshDeps struct {
	Action      string
	Validate    func(ctx context.Context, token, declaredTenant string) ValidateResult
	EnforceRate func(ctx context.Context, action, tenantID, identifier, ip string) error
	Revoke      func(ctx context.Context, tokenHash, tenantID string, expiresAt time.Time) error
	Issue       func(tenantID string, userID int64, username string) (IssuedToken, error)
}

// RefreshResult is the outcome of RunRefresh.
type RefreshResult struct {
	Old     revocation.Claims
	OldHash string
	Issued  IssuedToken
	Failure Failure
	Err     error
}

// RunRefresh revokes the presented token before issuing its replacement.
// If the revocation cannot be written no new token is returned.
func RunRefresh(ctx context.Context, token, declaredTenant, ip string, deps RefreshDeps) RefreshResult {
	v := deps.Validate(ctx, token, declaredTenant)
	res := RefreshResult{Old: v.Claims, OldHash: v.TokenHash}
	if v.Failure != FailureNone {
		res.Failure, res.Err = v.Failure, v.Err
		return res
	}

	identifier := strconv.FormatInt(v.Claims.UserID, 10)
	if err := deps.EnforceRate(ctx, deps.Action, v.Claims.TenantID, identifier, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			res.Failure = FailureRateLimited
			return res
		}
		res.Failure, res.Err = FailureInternal, err
		return res
	}

	if err := deps.Revoke(ctx, v.TokenHash, v.Claims.TenantID, v.Claims.ExpiresAt); err != nil {
		res.Failure, res.Err = FailureInternal, err
		return res
	}

	issued, err := deps.Issue(v.Claims.TenantID, v.Claims.UserID, v.Claims.Username)
	if err != nil {
		res.Failure, res.Err = FailureInternal, err
		return res
	}
	res.Issued = issued
	return res
}
