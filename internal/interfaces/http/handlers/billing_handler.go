package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reelgauge/reelgauge/internal/application/billing"
	"github.com/reelgauge/reelgauge/internal/interfaces/http/middleware"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// SignatureHeader carries the webhook HMAC signature.
const SignatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 64 << 10

// BillingHandler serves the token balance, pack catalog, checkout, and the
// payment webhook.
type BillingHandler struct {
	svc           *billing.Service
	webhookSecret string
	verify        func(secret string, body []byte, signature string) error
}

// NewBillingHandler constructs the handler.  verify is the webhook signature
// check, injected so tests can exercise rejection paths.
func NewBillingHandler(svc *billing.Service, webhookSecret string, verify func(string, []byte, string) error) *BillingHandler {
	return &BillingHandler{svc: svc, webhookSecret: webhookSecret, verify: verify}
}

// Packs returns the purchasable pack catalog.
func (h *BillingHandler) Packs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": billing.Packs})
}

// Balance returns the caller's token balance.
func (h *BillingHandler) Balance(c *gin.Context) {
	balance, err := h.svc.Balance(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": middleware.AccountID(c), "balance": balance})
}

// History returns the caller's ledger history, newest first.
func (h *BillingHandler) History(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	history, err := h.svc.History(c.Request.Context(), middleware.AccountID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

// CheckoutRequest selects the pack to purchase.
type CheckoutRequest struct {
	PackID string `json:"pack_id" binding:"required"`
}

// Checkout opens a hosted checkout session and returns its redirect URL.
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid checkout body"))
		return
	}
	url, err := h.svc.CreateCheckout(c.Request.Context(), middleware.AccountID(c), req.PackID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

// Webhook settles verified payment processor events.  The endpoint is
// unauthenticated; the HMAC signature over the raw body is the trust anchor.
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read webhook body"))
		return
	}
	if err := h.verify(h.webhookSecret, body, c.GetHeader(SignatureHeader)); err != nil {
		respondError(c, err)
		return
	}

	var ev billing.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "webhook body is not valid json"))
		return
	}
	if err := h.svc.Settle(c.Request.Context(), ev); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
