package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// slackTimeout bounds a webhook delivery so a slow Slack endpoint cannot
// hold up the request path.
const slackTimeout = 5 * time.Second

// WebhookPoster posts Slack incoming-webhook messages.
type WebhookPoster struct {
	client *http.Client
}

// NewWebhookPoster creates a poster with the default timeout.
func NewWebhookPoster() *WebhookPoster {
	return &WebhookPoster{
		client: &http.Client{Timeout: slackTimeout},
	}
}

func (w *WebhookPoster) Post(ctx context.Context, webhookURL, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}

var _ SlackPoster = (*WebhookPoster)(nil)
