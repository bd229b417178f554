package fx

import (
	"context"
	"testing"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate(t *testing.T) {
	svc := NewRateService(DefaultRate)
	ctx := context.Background()

	tests := []struct {
		name     string
		from     domain.Currency
		to       domain.Currency
		wantRate string
		wantErr  error
	}{
		{name: "USD to EUR", from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantRate: "0.92"},
		{name: "EUR to USD", from: domain.CurrencyEUR, to: domain.CurrencyUSD, wantRate: "1.086957"},
		{name: "same currency", from: domain.CurrencyUSD, to: domain.CurrencyUSD, wantRate: "1"},
		{name: "invalid currency", from: domain.CurrencyUSD, to: domain.Currency("XYZ"), wantErr: domain.ErrInvalidCurrency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := svc.GetRate(ctx, tc.from, tc.to)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.from, quote.FromCurrency)
			assert.Equal(t, tc.to, quote.ToCurrency)
			assert.True(t, quote.Rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"rate: got %s, want %s", quote.Rate, tc.wantRate)
		})
	}
}

func TestConvert(t *testing.T) {
	ctx := context.Background()
	svc := NewRateService(DefaultRate)

	tests := []struct {
		name     string
		amount   int64
		from     domain.Currency
		to       domain.Currency
		wantDest int64
		wantErr  error
	}{
		{name: "10000 USD to EUR", amount: 10000, from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantDest: 9200},
		{name: "USD to EUR floors", amount: 1, from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantDest: 0},
		{name: "USD to EUR floors fraction", amount: 333, from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantDest: 306},
		{name: "9200 EUR to USD exact", amount: 9200, from: domain.CurrencyEUR, to: domain.CurrencyUSD, wantDest: 10000},
		{name: "EUR to USD floors", amount: 100, from: domain.CurrencyEUR, to: domain.CurrencyUSD, wantDest: 108},
		{name: "23 EUR cents divides evenly", amount: 23, from: domain.CurrencyEUR, to: domain.CurrencyUSD, wantDest: 25},
		{name: "same currency passthrough", amount: 5000, from: domain.CurrencyUSD, to: domain.CurrencyUSD, wantDest: 5000},
		{name: "zero amount", amount: 0, from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantErr: domain.ErrInvalidAmount},
		{name: "negative amount", amount: -100, from: domain.CurrencyUSD, to: domain.CurrencyEUR, wantErr: domain.ErrInvalidAmount},
		{name: "invalid currency pair", amount: 1000, from: domain.CurrencyUSD, to: domain.Currency("XYZ"), wantErr: domain.ErrInvalidCurrency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv, err := svc.Convert(ctx, tc.amount, tc.from, tc.to)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.amount, conv.SourceAmount)
			assert.Equal(t, tc.wantDest, conv.DestAmount)
		})
	}
}

func TestConvert_NeverInflates(t *testing.T) {
	ctx := context.Background()
	svc := NewRateService(DefaultRate)

	for amount := int64(1); amount <= 5000; amount++ {
		toEUR, err := svc.Convert(ctx, amount, domain.CurrencyUSD, domain.CurrencyEUR)
		require.NoError(t, err)
		ideal := decimal.NewFromInt(amount).Mul(DefaultRate)
		dest := decimal.NewFromInt(toEUR.DestAmount)
		require.True(t, dest.LessThanOrEqual(ideal), "USD %d -> EUR %d exceeds %s", amount, toEUR.DestAmount, ideal)
		require.True(t, ideal.Sub(dest).LessThan(decimal.NewFromInt(1)))

		toUSD, err := svc.Convert(ctx, amount, domain.CurrencyEUR, domain.CurrencyUSD)
		require.NoError(t, err)
		ideal = decimal.NewFromInt(amount).Div(DefaultRate)
		dest = decimal.NewFromInt(toUSD.DestAmount)
		require.True(t, dest.LessThanOrEqual(ideal), "EUR %d -> USD %d exceeds %s", amount, toUSD.DestAmount, ideal)
		require.True(t, ideal.Sub(dest).LessThan(decimal.NewFromInt(1)))
	}
}
