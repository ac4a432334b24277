// Package money converts between decimal amount strings used at the API
// boundary and the integer minor units (cents) stored in the database.
// All balance arithmetic elsewhere in the application operates on int64
// cents; decimals exist only at the edges.
package money

import (
	"github.com/shopspring/decimal"

	"hearth/internal/errors"
)

var centFactor = decimal.NewFromInt(100)

// ParseCents parses a positive decimal amount string such as "30.00" or
// "12.5" into cents. Amounts must be strictly positive and represent a
// whole number of cents ("12.500" is fine, "12.505" is not); anything
// else returns ErrInvalidAmount.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInvalidAmount, err)
	}
	if !d.IsPositive() {
		return 0, errors.ErrInvalidAmount
	}
	cents := d.Mul(centFactor)
	if !cents.IsInteger() {
		return 0, errors.ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseCentsNonNegative parses a decimal amount string into cents,
// additionally accepting zero. Used for opening balances.
func ParseCentsNonNegative(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return 0, errors.ErrInvalidAmount
	}
	cents := d.Mul(centFactor)
	if !cents.IsInteger() {
		return 0, errors.ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a decimal string with exactly two
// fractional digits, e.g. 3050 -> "30.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
