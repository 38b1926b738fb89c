package economy

import "github.com/shopspring/decimal"

// RoundCents rounds a credit amount to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Cents converts a credit amount to a decimal rounded to two places.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
