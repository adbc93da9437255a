package flows

import (
	"context"

	"github.com/MrEthical07/authgate/internal/revocation"
)

// ValidateDeps wires the per-request validation path.
type ValidateDeps struct {
	HashToken func(string) string
	IsRevoked func(context.Context, string) (bool, error)
	Cached    func(string) (revocation.Claims, bool)
	Parse     func(string) (revocation.Claims, error)
	Remember  func(context.Context, string, revocation.Claims)
	// GuardTenant compares the declared tenant with the token tenant and
	// checks that the tenant is active.
	GuardTenant func(ctx context.Context, declared, embedded string) (Failure, error)
}

// ValidateResult is the outcome of RunValidate.
type ValidateResult struct {
	Claims    revocation.Claims
	TokenHash string
	CacheHit  bool
	Failure   Failure
	Err       error
}

// RunValidate checks the blacklist before trusting cached or freshly parsed
// claims, then applies the tenant guard.
func RunValidate(ctx context.Context, token, declaredTenant string, deps ValidateDeps) ValidateResult {
	if declaredTenant == "" {
		return ValidateResult{Failure: FailureTenantRequired}
	}
	if token == "" {
		return ValidateResult{Failure: FailureInvalidToken}
	}

	hash := deps.HashToken(token)
	res := ValidateResult{TokenHash: hash}

	revoked, err := deps.IsRevoked(ctx, hash)
	if err != nil {
		res.Failure, res.Err = FailureInternal, err
		return res
	}
	if revoked {
		res.Failure = FailureBlacklisted
		return res
	}

	claims, ok := deps.Cached(hash)
	if ok {
		res.CacheHit = true
	} else {
		claims, err = deps.Parse(token)
		if err != nil {
			res.Failure, res.Err = FailureInvalidToken, err
			return res
		}
		deps.Remember(ctx, hash, claims)
	}
	res.Claims = claims

	failure, err := deps.GuardTenant(ctx, declaredTenant, claims.TenantID)
	if failure != FailureNone {
		res.Failure, res.Err = failure, err
	}
	return res
}
