// Package money converts between stored integer cents and decimal amounts.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

const scale = 2

// ErrOutOfRange is returned when an amount has no int64 cents representation.
var ErrOutOfRange = errors.New("amount out of range")

// FromCents turns an integer amount of cents into a two-place decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -scale)
}

// ToCents rounds d half away from zero to two places and returns it in cents.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Round(scale).Shift(scale).BigInt()
	if !cents.IsInt64() {
		return 0, ErrOutOfRange
	}

	return cents.Int64(), nil
}

// LineTotal returns price * quantity without leaving decimal arithmetic.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
