package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// JobRepository is an in-memory job.Repository.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*job.Job
}

// NewJobRepository returns an empty in-memory job store.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]*job.Job)}
}

func (r *JobRepository) Create(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[j.ID]; exists {
		return errors.Newf(errors.ErrCodeConflict, "job %s already exists", j.ID)
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *JobRepository) Update(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[j.ID]; !exists {
		return errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", j.ID)
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *JobRepository) FindByID(_ context.Context, id uuid.UUID) (*job.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	cp := *j
	return &cp, nil
}

func (r *JobRepository) ListByAccount(_ context.Context, accountID string, limit int) ([]*job.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*job.Job
	for _, j := range r.jobs {
		if j.AccountID == accountID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *JobRepository) ListStale(_ context.Context, cutoff time.Time) ([]*job.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*job.Job
	for _, j := range r.jobs {
		if !j.Status.Terminal() && j.CreatedAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}
