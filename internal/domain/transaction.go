package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeExchange TransactionType = "exchange"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeTransfer || t == TransactionTypeExchange
}

// Transaction is an immutable record of one money movement. Amount and
// Currency are what the initiator asked to move, in minor units.
type Transaction struct {
	ID        uuid.UUID
	Type      TransactionType
	Amount    int64
	Currency  Currency
	CreatedAt time.Time
}

type TransactionFilter struct {
	Type *TransactionType
}

type TransactionPage struct {
	Items []Transaction
	Total int
	Page  int
	Limit int
}

type TransactionDetail struct {
	Transaction Transaction
	Entries     []LedgerEntry
}
