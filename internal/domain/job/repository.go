package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for jobs.
type Repository interface {
	// Create persists a new job record.
	Create(ctx context.Context, j *Job) error

	// Update replaces the stored record for the job's ID.
	Update(ctx context.Context, j *Job) error

	// FindByID returns the job, or an ErrCodeJobNotFound error.
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// ListByAccount returns the account's jobs newest first, at most limit.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*Job, error)

	// ListStale returns non-terminal jobs whose CreatedAt is older than cutoff.
	// The reaper uses this to fail jobs orphaned by a crashed worker.
	ListStale(ctx context.Context, cutoff time.Time) ([]*Job, error)
}
