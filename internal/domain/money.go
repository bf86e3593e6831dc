package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a balance value in whole currency units (COP has no minor unit in practice).
type Amount int64

// Decimal converts the amount to a shopspring/decimal.Decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}

// Percent returns a as a percentage of base, rounded to two places.
// A zero base yields zero.
func (a Amount) Percent(base Amount) decimal.Decimal {
	if base == 0 {
		return decimal.Zero
	}
	return a.Decimal().Mul(decimal.NewFromInt(100)).Div(base.Decimal()).Round(2)
}

// String renders the amount with thousands separators, e.g. "$ 50.000".
func (a Amount) String() string {
	neg := a < 0
	digits := a.Decimal().Abs().StringFixed(0)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	if neg {
		return fmt.Sprintf("-$ %s", out)
	}
	return fmt.Sprintf("$ %s", out)
}
