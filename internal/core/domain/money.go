package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are carried as fixed-point decimals rounded to 2 places.
var maxTotalAmount = decimal.NewFromInt(1_000_000)

func NewPrice(v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price must be non-negative: %w", ErrValidation)
	}
	return v.Round(2), nil
}

func NewTotalAmount(v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("total amount must be non-negative: %w", ErrValidation)
	}
	if v.GreaterThanOrEqual(maxTotalAmount) {
		return decimal.Decimal{}, fmt.Errorf("total amount must be less than %s: %w", maxTotalAmount, ErrValidation)
	}
	return v.Round(2), nil
}
