package handler

import "github.com/shopspring/decimal"

// toDecimal bridges float JSON inputs into the decimal type the
// application layer computes with.
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
