package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotificationPayload is the JSON body posted to the outcome webhook.
// Never includes key material.
type NotificationPayload struct {
	JobID    string    `json:"job_id"`
	Kind     string    `json:"kind"` // "backup" or "restore"
	Outcome  Outcome   `json:"outcome"`
	Artifact string    `json:"artifact,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier posts terminal job outcomes to a configured webhook. A zero
// WebhookURL disables it.
type Notifier struct {
	config NotifyConfig
	client *http.Client
}

// NewNotifier creates a notifier from config.
func NewNotifier(config NotifyConfig) *Notifier {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.config.WebhookURL != ""
}

// Notify posts the payload. Best-effort from the caller's perspective;
// the returned error is for logging only.
func (n *Notifier) Notify(ctx context.Context, payload NotificationPayload) error {
	if !n.Enabled() {
		return nil
	}
	if payload.At.IsZero() {
		payload.At = time.Now()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
