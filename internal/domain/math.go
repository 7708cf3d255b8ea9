package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const outputPrecision = 2

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds a figure for output: two decimal places, half away from zero.
// All accumulation happens on unrounded floats; Round2 is applied once at the output boundary.
// NaN and infinities collapse to zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(outputPrecision).InexactFloat64()
}

// RoundPrice rounds a quoted unit price to four decimal places.
func RoundPrice(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// MultiplyRound2 multiplies quantity by price in decimal arithmetic and rounds for output.
func MultiplyRound2(quantity, price float64) float64 {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price)).Round(outputPrecision).InexactFloat64()
}
