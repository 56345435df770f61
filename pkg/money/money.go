// Package money holds the decimal helpers used for prices and totals.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a decimal amount. Blank or malformed input yields zero.
func Parse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
