// Package money centralises fixed-point amount arithmetic for the ledger.
// All balances accumulate as decimals; floats only appear at the HTTP edge.
package money

import "github.com/shopspring/decimal"

// Tolerance is the maximum accepted debit/credit mismatch, one centavo.
var Tolerance = decimal.New(1, -2)

// Round2 rounds to two decimals for presentation.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(Tolerance) <= 0
}

// IsNegative reports whether d is below zero.
func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}
