// Package payments implements the outbound payment-processor client and the
// webhook signature verification used by the inbound endpoint.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/reelgauge/reelgauge/internal/application/billing"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Client creates hosted checkout sessions with the payment processor.
type Client struct {
	cfg     config.PaymentsConfig
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewClient constructs the client.  baseURL is the public address of this
// service, used to build the success and cancel redirect URLs.
func NewClient(cfg config.PaymentsConfig, baseURL string, log logging.Logger) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  log.Named("payments"),
	}
}

type checkoutRequest struct {
	AccountID  string `json:"account_id"`
	PackID     string `json:"pack_id"`
	Tokens     int64  `json:"tokens"`
	PriceCents int64  `json:"price_cents"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// CreateCheckout opens a hosted checkout session for the pack.
func (c *Client) CreateCheckout(ctx context.Context, accountID string, pack billing.Pack) (string, string, error) {
	payload := checkoutRequest{
		AccountID:  accountID,
		PackID:     pack.ID,
		Tokens:     pack.Tokens,
		PriceCents: pack.PriceUSD,
		SuccessURL: c.redirect(c.cfg.SuccessPath),
		CancelURL:  c.redirect(c.cfg.CancelPath),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode checkout request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CheckoutURL, bytes.NewReader(body))
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeInternal, "failed to build checkout request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeExternalService, "payment processor unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", "", errors.Newf(errors.ErrCodeExternalService,
			"payment processor returned status %d: %s", resp.StatusCode, snippet)
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeExternalService, "checkout response is not valid json")
	}
	if out.URL == "" || out.SessionID == "" {
		return "", "", errors.New(errors.ErrCodeExternalService, "checkout response is missing url or session id")
	}
	return out.URL, out.SessionID, nil
}

func (c *Client) redirect(path string) string {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return c.baseURL + path
	}
	return u
}
