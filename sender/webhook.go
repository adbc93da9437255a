package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MrEthical07/authgate"
)

type webhookPayload struct {
	Channel string `json:"channel"`
	Address string `json:"address"`
	Code    string `json:"code"`
}

// WebhookSender hands codes to an external delivery service over HTTP.
// Any non-2xx response is a delivery failure.
type WebhookSender struct {
	URL        string
	Headers    http.Header
	HTTPClient *http.Client
	channel    authgate.Channel
}

func NewWebhookSender(channel authgate.Channel, url string, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &WebhookSender{
		URL:        url,
		Headers:    http.Header{},
		HTTPClient: client,
		channel:    channel,
	}
}

func (s *WebhookSender) SendCode(ctx context.Context, address, code string) error {
	body, err := json.Marshal(webhookPayload{Channel: string(s.channel), Address: address, Code: code})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range s.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering code: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivery endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
