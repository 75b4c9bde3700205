// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal strings are converted with
// shopspring/decimal so rounding never goes through float64.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps amounts well inside int64 after arithmetic on totals.
const maxCents = int64(1) << 53

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Signs, exponents and zero
// amounts are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// NewMoneyFromFloat rounds a float amount to the nearest cent.
func NewMoneyFromFloat(amount float64) Money {
	return Money{Cents: decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()}
}

// Dollars returns the amount as a float64 for scoring and statistics.
// Use cents for stored arithmetic to avoid floating-point drift.
func (m Money) Dollars() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Decimal returns the exact decimal value of the amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals, e.g. "1200.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}
