package authgate

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/authgate/internal"
	"github.com/MrEthical07/authgate/internal/stores"
)

// SendVerificationCode generates a one-time code, stores its digest and hands
// the plaintext to the channel's CodeSender. Sending again replaces the
// previous code for the same purpose and address.
//
// Unless the purpose is listed in Verification.OpenPurposes, an address that
// matches no user of the tenant is reported as success without sending
// anything.
func (e *Engine) SendVerificationCode(ctx context.Context, req CodeRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	address, err := checkCodeTarget(req.Purpose, req.Channel, req.Address)
	if err != nil {
		return err
	}
	sender := e.senders[req.Channel]
	if sender == nil {
		return ErrChannelUnsupported
	}
	tenantID, err := e.requireTenant(ctx)
	if err != nil {
		return err
	}

	identifier := codeIdentifier(req.Channel, address)
	if err := e.enforceRate(ctx, ActionSendCode, tenantID, identifier, clientIPFromContext(ctx)); err != nil {
		return e.rateError(err)
	}

	fields := auditFields{
		tenantID: tenantID,
		subject:  address,
		metadata: map[string]string{"purpose": req.Purpose, "channel": string(req.Channel)},
	}

	if !e.config.Verification.openPurpose(req.Purpose) {
		user, err := e.userProvider.GetUserByAddress(ctx, tenantID, req.Channel, address)
		switch {
		case errors.Is(err, ErrUserNotFound):
			e.metricInc(MetricCodeSuppressed)
			fields.metadata["suppressed"] = "unknown_address"
			e.emitAudit(ctx, auditEventCodeSent, true, nil, fields)
			return nil
		case err != nil:
			e.internalError(err)
			return ErrInternal
		}
		fields.userID = user.UserID
	}

	code, err := internal.NewNumericCode(e.config.Verification.CodeLength)
	if err != nil {
		e.internalError(err)
		return ErrInternal
	}

	key := e.codeStore.Key(req.Purpose, tenantID, string(req.Channel), address)
	if err := e.codeStore.Save(ctx, key, code, e.config.Verification.CodeTTL); err != nil {
		e.internalError(err)
		return ErrInternal
	}

	if err := sender.SendCode(ctx, address, code); err != nil {
		// An undelivered code must not stay verifiable.
		if delErr := e.store.Del(ctx, key); delErr != nil {
			e.logger.Error(delErr, "dropping undelivered code", "tenant", tenantID)
		}
		e.logger.Error(err, "code delivery failed", "tenant", tenantID, "channel", string(req.Channel))
		return ErrInternal
	}

	e.metricInc(MetricCodeSent)
	e.emitAudit(ctx, auditEventCodeSent, true, nil, fields)
	return nil
}

// VerifyCode checks a code sent by SendVerificationCode. A matching code is
// deleted in the same step, so it verifies at most once. Wrong, expired,
// used and exhausted codes all report ErrInvalidCode.
func (e *Engine) VerifyCode(ctx context.Context, check CodeCheck) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	address, err := checkCodeTarget(check.Purpose, check.Channel, check.Address)
	if err != nil {
		return err
	}
	if strings.TrimSpace(check.Code) == "" {
		return ErrInvalidRequest
	}
	tenantID, err := e.requireTenant(ctx)
	if err != nil {
		return err
	}

	identifier := codeIdentifier(check.Channel, address)
	if err := e.enforceRate(ctx, ActionVerifyCode, tenantID, identifier, clientIPFromContext(ctx)); err != nil {
		return e.rateError(err)
	}

	fields := auditFields{
		tenantID: tenantID,
		subject:  address,
		metadata: map[string]string{"purpose": check.Purpose, "channel": string(check.Channel)},
	}

	key := e.codeStore.Key(check.Purpose, tenantID, string(check.Channel), address)
	err = e.codeStore.VerifyAndConsume(ctx, key, strings.TrimSpace(check.Code))
	switch {
	case err == nil:
		e.metricInc(MetricCodeVerified)
		e.emitAudit(ctx, auditEventCodeVerified, true, nil, fields)
		return nil
	case errors.Is(err, stores.ErrCodeNotFound):
		fields.metadata["reason"] = "not_found"
	case errors.Is(err, stores.ErrCodeMismatch):
		fields.metadata["reason"] = "mismatch"
	case errors.Is(err, stores.ErrCodeAttemptsExceeded):
		fields.metadata["reason"] = "attempts_exceeded"
	default:
		e.internalError(err)
		return ErrInternal
	}

	e.metricInc(MetricCodeRejected)
	e.emitAudit(ctx, auditEventCodeRejected, false, ErrInvalidCode, fields)
	return ErrInvalidCode
}

func checkCodeTarget(purpose string, channel Channel, address string) (string, error) {
	if strings.TrimSpace(purpose) == "" || !channel.Valid() {
		return "", ErrInvalidRequest
	}
	address = channel.Normalize(address)
	if address == "" {
		return "", ErrInvalidRequest
	}
	return address, nil
}

func codeIdentifier(channel Channel, address string) string {
	return string(channel) + ":" + address
}
