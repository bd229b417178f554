package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`^(?:\d+(?:\.\d{1,2})?|\.\d{1,2})$`)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string such as "10.05" into minor units.
// At most two fractional digits are accepted and the result must be positive.
func ParseAmount(s string) (int64, error) {
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("ParseAmount: %q: %w", s, ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ParseAmount: %q: %w", s, ErrInvalidAmount)
	}

	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, fmt.Errorf("ParseAmount: %q out of range: %w", s, ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// FormatAmount renders minor units as a two-decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

const maxAmount = int64(1<<63 - 1)
