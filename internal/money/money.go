// Package money converts between engine amounts (float64 major units) and
// stored amounts (int64 minor units) without binary rounding surprises.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places in the smallest currency unit.
const MinorUnits = 2

// ErrOutOfRange is returned when an amount has no int64 minor-unit form.
var ErrOutOfRange = errors.New("amount out of range")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts a major-unit amount to minor units, rounding half away
// from zero. 12.345 becomes 1235. NaN, infinities and amounts beyond int64
// minor units return ErrOutOfRange.
func ToMinor(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%v: %w", amount, ErrOutOfRange)
	}
	minor := decimal.NewFromFloat(amount).Shift(MinorUnits).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%v: %w", amount, ErrOutOfRange)
	}
	return minor.IntPart(), nil
}

// FromMinor converts minor units back to a major-unit amount.
func FromMinor(minor int64) float64 {
	f, _ := decimal.New(minor, -MinorUnits).Float64()
	return f
}

// Format renders an amount with exactly two decimals, e.g. "-12.50".
func Format(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(MinorUnits)
}
