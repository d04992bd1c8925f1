package ledger

import "context"

// Repository is the persistence contract for the transaction log.
// Implementations must enforce a unique constraint on IdempotencyKey and
// reject duplicate inserts with ErrCodeConflict.
type Repository interface {
	// Append persists a new transaction.  The transaction's ID and CreatedAt
	// are filled in by the implementation when zero.
	Append(ctx context.Context, tx *Transaction) error

	// FindByIdempotencyKey returns the transaction committed under key, or an
	// ErrCodeNotFound error if no such transaction exists.
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// SumByAccount returns the signed sum of all transactions for account.
	SumByAccount(ctx context.Context, accountID string) (int64, error)

	// ListByAccount returns the most recent transactions for account, newest
	// first, at most limit entries.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*Transaction, error)
}
