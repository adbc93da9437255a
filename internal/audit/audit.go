package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Event is one security-relevant outcome. It never carries tokens, codes,
// captcha answers or passwords; tokens appear only as their hash.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	TenantID  string            `json:"tenant_id,omitempty"`
	UserID    int64             `json:"user_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	TokenHash string            `json:"token_hash,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(append(data, '\n'))
}

// LogSink writes events as structured log lines.
type LogSink struct {
	logger logr.Logger
}

func NewLogSink(logger logr.Logger) *LogSink {
	return &LogSink{logger: logger.WithName("audit")}
}

func (s *LogSink) Emit(ctx context.Context, event Event) {
	kvs := []interface{}{
		"event", event.EventType,
		"success", event.Success,
		"tenant", event.TenantID,
	}
	if event.UserID != 0 {
		kvs = append(kvs, "user_id", event.UserID)
	}
	if event.Subject != "" {
		kvs = append(kvs, "subject", event.Subject)
	}
	if event.TokenHash != "" {
		kvs = append(kvs, "token_hash", event.TokenHash)
	}
	if event.IP != "" {
		kvs = append(kvs, "ip", event.IP)
	}
	if event.Error != "" {
		kvs = append(kvs, "error", event.Error)
	}
	for k, v := range event.Metadata {
		kvs = append(kvs, k, v)
	}
	s.logger.Info("audit event", kvs...)
}
