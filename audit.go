package authgate

import (
	"context"
	"io"

	"github.com/MrEthical07/authgate/internal/audit"
	"github.com/go-logr/logr"
)

// AuditEvent is one security-relevant outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine. Emit must
// not block for long; events are dropped when the buffer is full and
// DropIfFull is set.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink that forwards events to a buffered channel.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewLogSink returns a sink that logs events through logger.
func NewLogSink(logger logr.Logger) *audit.LogSink {
	return audit.NewLogSink(logger)
}

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLogout           = "logout"
	auditEventRefreshSuccess   = "refresh_success"
	auditEventRefreshFailure   = "refresh_failure"
	auditEventCaptchaIssued    = "captcha_issued"
	auditEventCaptchaFailed    = "captcha_failed"
	auditEventCodeSent         = "code_sent"
	auditEventCodeVerified     = "code_verified"
	auditEventCodeRejected     = "code_rejected"
	auditEventTenantMismatch   = "tenant_mismatch"
	auditEventTokenBlacklisted = "token_blacklisted"
)

type auditFields struct {
	tenantID  string
	userID    int64
	subject   string
	tokenHash string
	metadata  map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, err error, f auditFields) {
	if e == nil || e.audit == nil {
		return
	}
	if f.tenantID == "" {
		f.tenantID, _ = TenantIDFromContext(ctx)
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if f.metadata == nil {
			f.metadata = make(map[string]string, 1)
		}
		f.metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		TenantID:  f.tenantID,
		UserID:    f.userID,
		Subject:   f.subject,
		TokenHash: f.tokenHash,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  f.metadata,
	}
	if err != nil {
		event.Error = string(CodeOf(err))
	}

	e.audit.Emit(ctx, event)
}
