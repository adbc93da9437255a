package authgate

import (
	"context"
	"errors"

	"github.com/MrEthical07/authgate/internal/flows"
)

// guardTenant runs after a token has been verified. The declared tenant must
// equal the tenant embedded in the token, and the tenant must still be active.
func (e *Engine) guardTenant(ctx context.Context, declared, embedded string) (flows.Failure, error) {
	if declared == "" {
		return flows.FailureTenantRequired, nil
	}
	if declared != embedded {
		e.metricInc(MetricTenantMismatch)
		e.emitAudit(ctx, auditEventTenantMismatch, false, ErrTenantMismatch, auditFields{
			tenantID: declared,
			metadata: map[string]string{"token_tenant": embedded},
		})
		return flows.FailureTenantMismatch, nil
	}
	return e.tenantActive(ctx, declared)
}

// tenantActive consults the TenantProvider. A lookup error fails closed.
func (e *Engine) tenantActive(ctx context.Context, tenantID string) (flows.Failure, error) {
	if tenantID == "" {
		return flows.FailureTenantRequired, nil
	}
	if e.tenantProvider == nil {
		return flows.FailureNone, nil
	}

	tenant, err := e.tenantProvider.GetTenant(ctx, tenantID)
	switch {
	case errors.Is(err, ErrTenantNotFound):
		e.metricInc(MetricTenantRejected)
		return flows.FailureTenantNotFound, nil
	case err != nil:
		return flows.FailureInternal, err
	case tenant.Status != TenantActive:
		e.metricInc(MetricTenantRejected)
		return flows.FailureTenantDisabled, nil
	}
	return flows.FailureNone, nil
}

// requireTenant resolves the declared tenant for operations outside the
// token flows.
func (e *Engine) requireTenant(ctx context.Context) (string, error) {
	tenantID, ok := TenantIDFromContext(ctx)
	if !ok {
		return "", ErrTenantRequired
	}
	failure, err := e.tenantActive(ctx, tenantID)
	if failure != flows.FailureNone {
		return "", e.failureError(failure, err)
	}
	return tenantID, nil
}
