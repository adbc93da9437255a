package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/google/uuid"
)

// CaptchaRequired reports whether identifier has reached the failure
// threshold for action in the declared tenant.
func (e *Engine) CaptchaRequired(ctx context.Context, action, identifier string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	tenantID, ok := TenantIDFromContext(ctx)
	if !ok {
		return false, ErrTenantRequired
	}

	required, err := e.captchaFailures.Required(ctx, action, tenantID, identifier)
	if err != nil {
		e.internalError(err)
		return false, ErrInternal
	}
	return required, nil
}

// CreateCaptcha issues a new arithmetic challenge. Issuance is rate limited
// under the captcha action for identifier and the client IP.
func (e *Engine) CreateCaptcha(ctx context.Context, action, identifier string) (*CaptchaChallenge, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	tenantID, err := e.requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.enforceRate(ctx, ActionCaptcha, tenantID, identifier, clientIPFromContext(ctx)); err != nil {
		return nil, e.rateError(err)
	}

	question, answer, err := newArithmetic(e.config.Captcha.MaxOperand)
	if err != nil {
		e.internalError(err)
		return nil, ErrInternal
	}

	now := e.now()
	ch := stores.CaptchaChallenge{
		ID:        uuid.NewString(),
		Answer:    strconv.Itoa(answer),
		TenantID:  tenantID,
		CreatedAt: now,
	}
	if err := e.captchaStore.Save(ctx, ch, e.config.Captcha.ChallengeTTL); err != nil {
		e.internalError(err)
		return nil, ErrInternal
	}

	e.metricInc(MetricCaptchaIssued)
	e.emitAudit(ctx, auditEventCaptchaIssued, true, nil, auditFields{
		tenantID: tenantID,
		subject:  identifier,
		metadata: map[string]string{"action": action},
	})
	return &CaptchaChallenge{
		CaptchaID: ch.ID,
		Question:  question,
		ExpiresAt: now.Add(e.config.Captcha.ChallengeTTL),
	}, nil
}

// VerifyCaptcha consumes the challenge and reports whether answer was
// correct. A challenge can be verified at most once, whatever the outcome.
func (e *Engine) VerifyCaptcha(ctx context.Context, captchaID, answer string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	ok, err := e.consumeCaptcha(ctx, captchaID, answer)
	if err != nil {
		e.internalError(err)
		return false, ErrInternal
	}
	return ok, nil
}

// RecordCaptchaFailure counts a failed attempt of action by identifier.
func (e *Engine) RecordCaptchaFailure(ctx context.Context, action, identifier string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	tenantID, ok := TenantIDFromContext(ctx)
	if !ok {
		return ErrTenantRequired
	}
	if _, err := e.captchaFailures.RecordFailure(ctx, action, tenantID, identifier); err != nil {
		e.internalError(err)
		return ErrInternal
	}
	return nil
}

// ResetCaptchaFailures clears the failure count of action by identifier.
func (e *Engine) ResetCaptchaFailures(ctx context.Context, action, identifier string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	tenantID, ok := TenantIDFromContext(ctx)
	if !ok {
		return ErrTenantRequired
	}
	if err := e.captchaFailures.Reset(ctx, action, tenantID, identifier); err != nil {
		e.internalError(err)
		return ErrInternal
	}
	return nil
}

func (e *Engine) consumeCaptcha(ctx context.Context, captchaID, answer string) (bool, error) {
	ch, ok, err := e.captchaStore.Consume(ctx, captchaID, answer)
	if err != nil {
		if errors.Is(err, stores.ErrCaptchaRecordCorrupt) {
			e.logger.Error(err, "discarding captcha record", "captcha_id", captchaID)
			return false, nil
		}
		return false, err
	}
	if ok {
		e.metricInc(MetricCaptchaPassed)
		return true, nil
	}

	e.metricInc(MetricCaptchaFailed)
	fields := auditFields{metadata: map[string]string{"captcha_id": captchaID}}
	if ch == nil {
		fields.metadata["reason"] = "not_found"
	} else {
		fields.tenantID = ch.TenantID
		fields.metadata["reason"] = "mismatch"
	}
	e.emitAudit(ctx, auditEventCaptchaFailed, false, ErrCaptchaInvalid, fields)
	return false, nil
}

// Bookkeeping failures on the captcha counter are logged, never returned.
func (e *Engine) recordCaptchaFailure(ctx context.Context, action, tenantID, identifier string) {
	reached, err := e.captchaFailures.RecordFailure(ctx, action, tenantID, identifier)
	if err != nil {
		e.logger.Error(err, "recording captcha failure", "action", action, "tenant", tenantID)
		return
	}
	if reached {
		e.logger.V(1).Info("captcha threshold reached", "action", action, "tenant", tenantID)
	}
}

func (e *Engine) resetCaptchaFailures(ctx context.Context, action, tenantID, identifier string) {
	if err := e.captchaFailures.Reset(ctx, action, tenantID, identifier); err != nil {
		e.logger.Error(err, "resetting captcha failures", "action", action, "tenant", tenantID)
	}
}

func (e *Engine) rateError(err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	e.internalError(err)
	return ErrInternal
}

// newArithmetic draws two operands in [1, maxOperand] and an operator. A
// subtraction never yields a negative answer.
func newArithmetic(maxOperand int) (string, int, error) {
	a, err := internal.RandomIntn(maxOperand)
	if err != nil {
		return "", 0, err
	}
	b, err := internal.RandomIntn(maxOperand)
	if err != nil {
		return "", 0, err
	}
	op, err := internal.RandomIntn(2)
	if err != nil {
		return "", 0, err
	}
	a, b = a+1, b+1

	if op == 0 {
		return fmt.Sprintf("What is %d + %d?", a, b), a + b, nil
	}
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("What is %d - %d?", a, b), a - b, nil
}
