package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole number", input: "25", want: 2500},
		{name: "one decimal", input: "10.5", want: 1050},
		{name: "two decimals", input: "10.05", want: 1005},
		{name: "leading dot", input: ".75", want: 75},
		{name: "single cent", input: "0.01", want: 1},
		{name: "large amount", input: "1500.00", want: 150000},
		{name: "three decimals", input: "10.005", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero cents", input: "0.00", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "plus sign", input: "+5", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "trailing dot", input: "10.", wantErr: true},
		{name: "lone dot", input: ".", wantErr: true},
		{name: "exponent", input: "1e3", wantErr: true},
		{name: "whitespace", input: " 10", wantErr: true},
		{name: "overflows int64", input: "99999999999999999999", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "25.00", FormatAmount(2500))
	assert.Equal(t, "0.01", FormatAmount(1))
	assert.Equal(t, "92.00", FormatAmount(9200))
	assert.Equal(t, "0.00", FormatAmount(0))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrencyConflict))
	assert.True(t, IsRetryable(ErrStoreFailure))
	assert.False(t, IsRetryable(ErrInsufficientFunds))
	assert.False(t, IsRetryable(ErrInvalidAmount))
}

func TestCurrency(t *testing.T) {
	assert.True(t, CurrencyUSD.IsValid())
	assert.True(t, CurrencyEUR.IsValid())
	assert.False(t, Currency("GBP").IsValid())
	assert.Equal(t, CurrencyEUR, CurrencyUSD.Counter())
	assert.Equal(t, CurrencyUSD, CurrencyEUR.Counter())
}
