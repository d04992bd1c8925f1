// Package admission gates job submission: it rejects oversized or overlong
// uploads, enforces one in-flight evaluation per account, and debits the
// estimated cost before any work starts.
package admission

import (
	"context"
	"sync"

	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Slot is a held admission for one account.  Release returns the slot exactly
// once; callers may defer it unconditionally.
type Slot struct {
	AccountID     string
	JobID         string
	EstimatedCost int64

	release func()
	once    sync.Once
}

// Release frees the account's in-flight slot.  Safe to call more than once.
func (s *Slot) Release() {
	s.once.Do(s.release)
}

// Controller performs admission control.  It owns the in-flight slot table
// and coordinates the upfront estimate debit with the ledger.
type Controller struct {
	ledger *ledger.Service
	log    logging.Logger

	mu       sync.Mutex
	inFlight map[string]string // accountID -> jobID holding the slot
}

// NewController constructs the admission controller.
func NewController(ledgerSvc *ledger.Service, log logging.Logger) *Controller {
	return &Controller{
		ledger:   ledgerSvc,
		log:      log.Named("admission"),
		inFlight: make(map[string]string),
	}
}

// Request carries everything admission needs to decide.
type Request struct {
	AccountID       string
	JobID           string
	SizeBytes       int64
	DurationSeconds float64
}

// Admit checks upload limits, reserves the account's single in-flight slot,
// and debits the estimated cost.  On any failure the slot is not held and the
// ledger is untouched; on success the returned slot must be released when the
// job reaches a terminal state.
func (c *Controller) Admit(ctx context.Context, req Request) (*Slot, error) {
	if req.SizeBytes > MaxFileSizeBytes {
		return nil, errors.Newf(errors.ErrCodeUploadTooLarge,
			"upload is %d bytes, limit is %d", req.SizeBytes, int64(MaxFileSizeBytes))
	}
	if req.DurationSeconds > MaxVideoSeconds {
		return nil, errors.Newf(errors.ErrCodeVideoTooLong,
			"video is %.1fs, limit is %ds", req.DurationSeconds, MaxVideoSeconds)
	}

	estimate := EstimateCost(req.DurationSeconds)

	c.mu.Lock()
	if holder, busy := c.inFlight[req.AccountID]; busy {
		c.mu.Unlock()
		return nil, errors.Newf(errors.ErrCodeConcurrencyLimit,
			"account %s already has job %s in flight", req.AccountID, holder)
	}
	c.inFlight[req.AccountID] = req.JobID
	c.mu.Unlock()

	// Debit inside the held slot.  The idempotency key is derived from the
	// job id so a retried submission of the same job cannot double-charge.
	_, err := c.ledger.Debit(ctx, req.AccountID, estimate,
		"evaluation estimate", req.JobID, "debit:"+req.JobID)
	if err != nil {
		c.free(req.AccountID, req.JobID)
		if errors.IsCode(err, errors.ErrCodeInsufficientBalance) {
			return nil, errors.Wrap(err, errors.ErrCodeInsufficientCredits,
				"balance cannot cover the estimated cost")
		}
		return nil, err
	}

	c.log.Info("job admitted",
		logging.String("account_id", req.AccountID),
		logging.String("job_id", req.JobID),
		logging.Int64("estimated_cost", estimate),
	)

	slot := &Slot{
		AccountID:     req.AccountID,
		JobID:         req.JobID,
		EstimatedCost: estimate,
	}
	slot.release = func() { c.free(req.AccountID, req.JobID) }
	return slot, nil
}

// InFlight reports whether the account currently holds a slot.
func (c *Controller) InFlight(accountID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[accountID]
	return busy
}

func (c *Controller) free(accountID, jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[accountID] == jobID {
		delete(c.inFlight, accountID)
	}
}
