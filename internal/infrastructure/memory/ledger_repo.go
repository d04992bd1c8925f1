// Package memory provides in-process repository implementations backed by
// maps and slices.  They power unit tests and the single-binary CLI mode,
// and they enforce the same contracts as the postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// LedgerRepository is an in-memory ledger.Repository.
type LedgerRepository struct {
	mu    sync.RWMutex
	txs   []*ledger.Transaction
	byKey map[string]*ledger.Transaction
}

// NewLedgerRepository returns an empty in-memory ledger.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{byKey: make(map[string]*ledger.Transaction)}
}

func (r *LedgerRepository) Append(_ context.Context, tx *ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[tx.IdempotencyKey]; exists {
		return errors.Newf(errors.ErrCodeConflict, "idempotency key %q already exists", tx.IdempotencyKey)
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	cp := *tx
	r.txs = append(r.txs, &cp)
	r.byKey[tx.IdempotencyKey] = &cp
	return nil
}

func (r *LedgerRepository) FindByIdempotencyKey(_ context.Context, key string) (*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byKey[key]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "no transaction for idempotency key %q", key)
	}
	cp := *tx
	return &cp, nil
}

func (r *LedgerRepository) SumByAccount(_ context.Context, accountID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, tx := range r.txs {
		if tx.AccountID == accountID {
			sum += tx.Signed()
		}
	}
	return sum, nil
}

func (r *LedgerRepository) ListByAccount(_ context.Context, accountID string, limit int) ([]*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ledger.Transaction
	for _, tx := range r.txs {
		if tx.AccountID == accountID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
