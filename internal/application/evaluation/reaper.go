package evaluation

import (
	"context"
	"time"

	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Reaper fails jobs that outlived the pipeline ceiling without reaching a
// terminal state, typically because a worker crashed mid-run, and refunds
// their charge.
type Reaper struct {
	orch     *Orchestrator
	interval time.Duration
	maxAge   time.Duration
	log      logging.Logger
}

// NewReaper constructs a reaper.  maxAge should comfortably exceed the job
// timeout so the reaper only ever sees orphans.
func NewReaper(orch *Orchestrator, interval, maxAge time.Duration, log logging.Logger) *Reaper {
	return &Reaper{
		orch:     orch,
		interval: interval,
		maxAge:   maxAge,
		log:      log.Named("reaper"),
	}
}

// Run loops until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxAge)
	stale, err := r.orch.deps.Jobs.ListStale(ctx, cutoff)
	if err != nil {
		r.log.Error("stale job listing failed", logging.Err(err))
		return
	}
	for _, j := range stale {
		// A job with a live pipeline in this process will terminate on its
		// own; only orphans are finalized here.
		r.orch.mu.Lock()
		_, live := r.orch.cancels[j.ID]
		r.orch.mu.Unlock()
		if live {
			continue
		}

		if j.Status == job.StatusQueued {
			if err := j.Transition(job.StatusRunning); err != nil {
				continue
			}
		}
		if err := j.MarkFailed(errors.ErrCodeJobTimeout, "job orphaned past the pipeline ceiling"); err != nil {
			r.log.Error("reap transition failed", logging.String("job_id", j.ID.String()), logging.Err(err))
			continue
		}
		j.ActualCost = 0
		if err := r.orch.deps.Jobs.Update(ctx, j); err != nil {
			r.log.Error("reap update failed", logging.String("job_id", j.ID.String()), logging.Err(err))
			continue
		}
		r.orch.refund(ctx, j, j.EstimatedCost, "job reaped")
		r.orch.publishTerminal(j, j.ErrorCode, j.ErrorMessage)
		r.orch.progress.Forget(j.ID)
		r.log.Warn("reaped orphaned job",
			logging.String("job_id", j.ID.String()),
			logging.String("account_id", j.AccountID),
		)
	}
}
