package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// SupportedCurrencies lists every currency a wallet can hold.
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyEUR}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR:
		return true
	default:
		return false
	}
}

// Counter returns the other currency of the USD/EUR pair.
func (c Currency) Counter() Currency {
	if c == CurrencyUSD {
		return CurrencyEUR
	}
	return CurrencyUSD
}

type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Currency  Currency
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
