package domain

import "github.com/shopspring/decimal"

// TaxRate is the flat rate applied to cart subtotals.
var TaxRate = decimal.NewFromFloat(0.08)

// Cents converts an amount to integer minor units, rounding half away from zero.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units to an amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
