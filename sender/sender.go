package sender

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/go-logr/logr"
)

const (
	KindLog     = "log"
	KindWebhook = "webhook"
)

// DefaultTimeout bounds one webhook delivery.
const DefaultTimeout = 5 * time.Second

var (
	ErrUnknownKind = errors.New("sender: unknown kind")
	ErrMissingURL  = errors.New("sender: webhook url is required")
)

// Config selects and configures one backend.
type Config struct {
	Kind    string            `yaml:"kind" toml:"kind"`
	URL     string            `yaml:"url" toml:"url"`
	Headers map[string]string `yaml:"headers" toml:"headers"`
	Timeout time.Duration     `yaml:"timeout" toml:"timeout"`
}

// FromConfig builds the backend named by cfg.Kind for channel.
func FromConfig(channel authgate.Channel, cfg Config, logger logr.Logger) (authgate.CodeSender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindLog:
		return NewLogSender(channel, logger), nil
	case KindWebhook:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, ErrMissingURL
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s := NewWebhookSender(channel, cfg.URL, &http.Client{Timeout: timeout})
		for k, v := range cfg.Headers {
			s.Headers.Set(k, v)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
