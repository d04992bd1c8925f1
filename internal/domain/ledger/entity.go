// Package ledger implements the prepaid-credit ledger: an append-only
// transaction log plus a derived balance per account.  The ledger is the sole
// source of truth for balances; no component stores a balance redundantly.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags a transaction's direction.  Amounts are stored positive; the sign
// is derived from the kind.
type Kind string

const (
	KindGrant  Kind = "grant"
	KindDebit  Kind = "debit"
	KindRefund Kind = "refund"
)

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID             uuid.UUID `json:"id"`
	AccountID      string    `json:"account_id"`
	Kind           Kind      `json:"kind"`
	Amount         int64     `json:"amount"` // always positive
	Reason         string    `json:"reason"`
	JobID          string    `json:"job_id,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signed returns the transaction's contribution to the account balance:
// negative for debits, positive for grants and refunds.
func (t *Transaction) Signed() int64 {
	if t.Kind == KindDebit {
		return -t.Amount
	}
	return t.Amount
}
