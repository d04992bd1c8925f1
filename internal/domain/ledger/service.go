package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Service wraps the Repository with the ledger's invariants: per-account
// serial ordering of check-and-mutate sequences, positive amounts, and
// idempotency-key replay semantics.
//
// Serialization is per account within this process.  The admission controller
// holds a single in-flight slot per account, so cross-process debit races are
// already excluded for job billing; settlement grants are naturally serialized
// by the unique processed-event guard.
type Service struct {
	repo Repository
	log  logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs the ledger service.
func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.Named("ledger"),
		locks: make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing mutations for one account.
func (s *Service) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	return l
}

// Balance returns the signed sum of all committed transactions for account.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.repo.SumByAccount(ctx, accountID)
}

// History returns the most recent transactions for account, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]*Transaction, error) {
	return s.repo.ListByAccount(ctx, accountID, limit)
}

// Grant credits amount to account.  Replaying the same idempotency key
// returns the originally committed transaction without re-applying the
// effect; reusing a key with a different amount or kind is rejected.
func (s *Service) Grant(ctx context.Context, accountID string, amount int64, reason, jobID, idempotencyKey string) (*Transaction, error) {
	return s.apply(ctx, &Transaction{
		AccountID:      accountID,
		Kind:           KindGrant,
		Amount:         amount,
		Reason:         reason,
		JobID:          jobID,
		IdempotencyKey: idempotencyKey,
	}, false)
}

// Debit charges amount from account.  Fails with ErrCodeInsufficientBalance
// when the projected balance would go negative.  The balance check and the
// append are serialized per account so that two concurrent debits can never
// both pass a check that only one amount permits.
func (s *Service) Debit(ctx context.Context, accountID string, amount int64, reason, jobID, idempotencyKey string) (*Transaction, error) {
	return s.apply(ctx, &Transaction{
		AccountID:      accountID,
		Kind:           KindDebit,
		Amount:         amount,
		Reason:         reason,
		JobID:          jobID,
		IdempotencyKey: idempotencyKey,
	}, true)
}

// Refund returns amount to account, correlated to the job it compensates.
func (s *Service) Refund(ctx context.Context, accountID string, amount int64, reason, jobID, idempotencyKey string) (*Transaction, error) {
	return s.apply(ctx, &Transaction{
		AccountID:      accountID,
		Kind:           KindRefund,
		Amount:         amount,
		Reason:         reason,
		JobID:          jobID,
		IdempotencyKey: idempotencyKey,
	}, false)
}

func (s *Service) apply(ctx context.Context, tx *Transaction, checkBalance bool) (*Transaction, error) {
	if tx.Amount <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidAmount, "amount must be positive, got %d", tx.Amount)
	}
	if tx.IdempotencyKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "idempotency key is required")
	}

	l := s.accountLock(tx.AccountID)
	l.Lock()
	defer l.Unlock()

	// Idempotency-key replay returns the original result.  A key reused with
	// a mismatched mutation is an invariant violation, never coerced.
	if prev, err := s.repo.FindByIdempotencyKey(ctx, tx.IdempotencyKey); err == nil {
		if prev.Kind != tx.Kind || prev.Amount != tx.Amount || prev.AccountID != tx.AccountID {
			return nil, errors.Newf(errors.ErrCodeLedgerKeyConflict,
				"idempotency key %q already used for a different mutation", tx.IdempotencyKey)
		}
		return prev, nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	if checkBalance {
		balance, err := s.repo.SumByAccount(ctx, tx.AccountID)
		if err != nil {
			return nil, err
		}
		if balance-tx.Amount < 0 {
			return nil, errors.Newf(errors.ErrCodeInsufficientBalance,
				"balance %d cannot cover debit of %d", balance, tx.Amount)
		}
	}

	tx.ID = uuid.New()
	if err := s.repo.Append(ctx, tx); err != nil {
		// A concurrent writer from another process may have won the key; fall
		// back to replay semantics.
		if errors.IsCode(err, errors.ErrCodeConflict) {
			if prev, ferr := s.repo.FindByIdempotencyKey(ctx, tx.IdempotencyKey); ferr == nil {
				if prev.Kind == tx.Kind && prev.Amount == tx.Amount && prev.AccountID == tx.AccountID {
					return prev, nil
				}
				return nil, errors.Newf(errors.ErrCodeLedgerKeyConflict,
					"idempotency key %q already used for a different mutation", tx.IdempotencyKey)
			}
		}
		return nil, err
	}

	s.log.Info("ledger transaction committed",
		logging.String("account_id", tx.AccountID),
		logging.String("kind", string(tx.Kind)),
		logging.Int64("amount", tx.Amount),
		logging.String("reason", tx.Reason),
		logging.String("job_id", tx.JobID),
	)
	return tx, nil
}
