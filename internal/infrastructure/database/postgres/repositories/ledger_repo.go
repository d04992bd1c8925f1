// Package repositories contains the pgx-backed persistence implementations.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// uniqueViolation is the SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// LedgerRepository is the pgx implementation of ledger.Repository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) Append(ctx context.Context, tx *ledger.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credit_transactions
			(id, account_id, kind, amount, reason, job_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.AccountID, string(tx.Kind), tx.Amount, tx.Reason, tx.JobID,
		tx.IdempotencyKey, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "idempotency key %q already exists", tx.IdempotencyKey)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append ledger transaction")
	}
	return nil
}

func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, kind, amount, reason, job_id, idempotency_key, created_at
		FROM credit_transactions
		WHERE idempotency_key = $1`, key)
	tx, err := scanTransaction(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Newf(errors.ErrCodeNotFound, "no transaction for idempotency key %q", key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to look up ledger transaction")
	}
	return tx, nil
}

func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'debit' THEN -amount ELSE amount END), 0)
		FROM credit_transactions
		WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to sum ledger transactions")
	}
	return sum, nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, kind, amount, reason, job_id, idempotency_key, created_at
		FROM credit_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list ledger transactions")
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan ledger transaction")
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "ledger listing failed")
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var kind string
	if err := row.Scan(&tx.ID, &tx.AccountID, &kind, &tx.Amount, &tx.Reason,
		&tx.JobID, &tx.IdempotencyKey, &tx.CreatedAt); err != nil {
		return nil, err
	}
	tx.Kind = ledger.Kind(kind)
	return &tx, nil
}
