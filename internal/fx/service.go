package fx

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultRate is the number of EUR one USD buys.
var DefaultRate = decimal.RequireFromString("0.92")

const quotePrecision = 6

type Quote struct {
	FromCurrency domain.Currency
	ToCurrency   domain.Currency
	Rate         decimal.Decimal
}

type Conversion struct {
	FromCurrency domain.Currency
	ToCurrency   domain.Currency
	SourceAmount int64
	DestAmount   int64
	Rate         decimal.Decimal
}

// RateService converts between USD and EUR at a single fixed rate.
// Conversions always round down to a whole minor unit so the credited side
// never receives more value than was debited.
type RateService struct {
	usdToEUR decimal.Decimal
}

func NewRateService(usdToEUR decimal.Decimal) *RateService {
	return &RateService{usdToEUR: usdToEUR}
}

func (s *RateService) GetRate(_ context.Context, from, to domain.Currency) (*Quote, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("GetRate: invalid currency pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}

	rate := decimal.NewFromInt(1)
	switch {
	case from == to:
	case from == domain.CurrencyUSD:
		rate = s.usdToEUR
	default:
		rate = rate.DivRound(s.usdToEUR, quotePrecision)
	}

	return &Quote{FromCurrency: from, ToCurrency: to, Rate: rate}, nil
}

// Convert returns floor(amount*R) for USD to EUR and floor(amount/R) for EUR to USD.
func (s *RateService) Convert(_ context.Context, amount int64, from, to domain.Currency) (*Conversion, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Convert: %w", domain.ErrInvalidAmount)
	}
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("Convert: invalid currency pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}

	conv := &Conversion{
		FromCurrency: from,
		ToCurrency:   to,
		SourceAmount: amount,
		DestAmount:   amount,
		Rate:         decimal.NewFromInt(1),
	}
	if from == to {
		return conv, nil
	}

	src := decimal.NewFromInt(amount)
	if from == domain.CurrencyUSD {
		conv.DestAmount = src.Mul(s.usdToEUR).Floor().IntPart()
		conv.Rate = s.usdToEUR
		return conv, nil
	}

	// QuoRem with zero precision yields the exact integer quotient, which
	// for positive operands is the floor.
	q, _ := src.QuoRem(s.usdToEUR, 0)
	conv.DestAmount = q.IntPart()
	conv.Rate = decimal.NewFromInt(1).DivRound(s.usdToEUR, quotePrecision)
	return conv, nil
}
