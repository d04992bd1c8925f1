package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// AdminHandler serves operator endpoints: cancellation of any job and manual
// credit grants.
type AdminHandler struct {
	orch   *evaluation.Orchestrator
	ledger *ledger.Service
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(orch *evaluation.Orchestrator, ledgerSvc *ledger.Service) *AdminHandler {
	return &AdminHandler{orch: orch, ledger: ledgerSvc}
}

// CancelJob cancels any account's job.
func (h *AdminHandler) CancelJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid job id"))
		return
	}
	if err := h.orch.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "canceling"})
}

// GrantRequest describes a manual credit grant.
type GrantRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Reason    string `json:"reason"`
	// IdempotencyKey lets operators retry a grant without double-crediting.
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// GrantCredits applies a manual grant to an account.
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid grant body"))
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "manual grant"
	}
	tx, err := h.ledger.Grant(c.Request.Context(), req.AccountID, req.Amount, reason, "", req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}
