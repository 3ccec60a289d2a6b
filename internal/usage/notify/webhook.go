package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	usage "energymeter-cloud/internal/usage/domain"
)

// WebhookNotifier forwards recorded breaches to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	UserID        string               `json:"userId"`
	Notifications []usage.Notification `json:"notifications"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the breach notifications as JSON. Delivery failures are
// the caller's to log; the ledger record is already durable.
func (n *WebhookNotifier) Notify(ctx context.Context, userID string, notifications []usage.Notification) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	if len(notifications) == 0 {
		return nil
	}
	body, err := json.Marshal(webhookPayload{UserID: userID, Notifications: notifications})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}
