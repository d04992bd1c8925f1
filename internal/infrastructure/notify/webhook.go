// Package notify posts operator-facing chat notifications to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// WebhookNotifier posts messages to a chat webhook URL.
type WebhookNotifier struct {
	url    string
	http   *http.Client
	logger logging.Logger
}

// NewWebhookNotifier constructs the notifier.  An empty URL yields nil so
// callers can wire it optionally.
func NewWebhookNotifier(url string, log logging.Logger) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: log.Named("notify"),
	}
}

// Notify posts one message.  Failures are returned for the caller to log;
// notification is never on the critical path.
func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "notification webhook unreachable")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 300 {
		return errors.Newf(errors.ErrCodeExternalService, "notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
