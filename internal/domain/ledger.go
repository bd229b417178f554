package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// LedgerEntry is one side of a double-entry pair. Amount is always positive
// and expressed in the currency of the wallet it touches.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	WalletID      uuid.UUID
	Direction     Direction
	Amount        int64
	Currency      Currency
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}
