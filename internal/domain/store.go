package domain

import (
	"context"

	"github.com/google/uuid"
)

// LedgerTx is the set of writes available inside one serializable unit of
// work. A wallet returned by LockWallet stays exclusively held by the unit
// of work until it commits or rolls back.
type LedgerTx interface {
	LockWallet(ctx context.Context, id uuid.UUID) (*Wallet, error)
	UpdateWalletBalance(ctx context.Context, id uuid.UUID, balance int64) error
	CreateTransaction(ctx context.Context, t *Transaction) error
	CreateLedgerEntry(ctx context.Context, e *LedgerEntry) error
}
