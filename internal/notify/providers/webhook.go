package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookSender POSTs notifications as JSON to a configured URL, which is
// enough for Slack-compatible and most chat-ops endpoints.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a new webhook sender
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts {"subject": ..., "text": ...} to the webhook URL.
func (w *WebhookSender) Send(subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
