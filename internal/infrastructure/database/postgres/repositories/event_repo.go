package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

// ProcessedEventRepository is the pgx implementation of the billing
// processed-event guard.  The primary key on event_id makes the insert the
// idempotency gate.
type ProcessedEventRepository struct {
	pool *pgxpool.Pool
}

// NewProcessedEventRepository constructs the repository.
func NewProcessedEventRepository(pool *pgxpool.Pool) *ProcessedEventRepository {
	return &ProcessedEventRepository{pool: pool}
}

func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, eventID, sessionID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO processed_payment_events (event_id, session_id, processed_at)
		VALUES ($1, $2, $3)`,
		eventID, sessionID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "event %q already processed", eventID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record processed event")
	}
	return nil
}
