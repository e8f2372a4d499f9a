// Package types provides common value types for the bookstore core.
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// RoundMoney rounds to 2 decimal places, half away from zero.
// All persisted currency amounts pass through this.
func RoundMoney(m Money) Money {
	return m.Round(2)
}

// MaxStockQty is the largest representable stock quantity.
// Matches a signed 32-bit bound so every ledger delta fits an int32 column.
const MaxStockQty int64 = math.MaxInt32

// AddStockQty applies a signed delta to a stock quantity, reporting whether
// the result stays within [0, MaxStockQty].
func AddStockQty(current, delta int64) (int64, bool) {
	next := current + delta
	if next < 0 || next > MaxStockQty {
		return current, false
	}
	return next, true
}
