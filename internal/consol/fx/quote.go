// Package fx holds currency translation primitives for consolidation.
package fx

import "github.com/shopspring/decimal"

// Quote is an exchange rate expressed as units of base currency per unit
// of the entity currency.
type Quote struct {
	Pair string
	Rate decimal.Decimal
}

// Valid reports whether the quote can be applied. A zero or negative rate
// is never applied silently.
func (q Quote) Valid() bool {
	return q.Rate.Sign() > 0
}

// Translate converts a local-currency amount to base currency.
func Translate(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}
