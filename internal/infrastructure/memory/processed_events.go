package memory

import (
	"context"
	"sync"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

// ProcessedEventRepository is an in-memory billing.ProcessedEventRepository.
type ProcessedEventRepository struct {
	mu   sync.Mutex
	seen map[string]string
}

// NewProcessedEventRepository returns an empty processed-event set.
func NewProcessedEventRepository() *ProcessedEventRepository {
	return &ProcessedEventRepository{seen: make(map[string]string)}
}

func (r *ProcessedEventRepository) MarkProcessed(_ context.Context, eventID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.seen[eventID]; exists {
		return errors.Newf(errors.ErrCodeConflict, "event %q already processed", eventID)
	}
	r.seen[eventID] = sessionID
	return nil
}
