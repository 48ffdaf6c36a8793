// Package amount implements fixed-point monetary values.
//
// An Amount counts minor units; one coin is 10^Decimals minor units. Decimal
// text is converted exactly, never through float64.
package amount

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Decimals is the number of fractional digits of one coin.
	Decimals = 8

	// Coin is one whole coin expressed in minor units.
	Coin Amount = 100_000_000
)

// maxAmount is math.MaxUint64 as a decimal, for range checks on parsed input.
var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Amount is a non-negative quantity of minor units.
type Amount uint64

// Parse converts decimal text such as "100", "0.5" or "140.00" to an Amount.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	if scaled.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return Amount(scaled.BigInt().Uint64()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromCoins returns n whole coins.
func FromCoins(n uint64) (Amount, error) {
	if n > math.MaxUint64/uint64(Coin) {
		return 0, fmt.Errorf("%w: %d coins", ErrOverflow, n)
	}
	return Amount(n) * Coin, nil
}

// Decimal returns the value in coins as an exact decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -Decimals)
}

// String formats the value in coins without trailing zeros, e.g. "40" or "0.25".
func (a Amount) String() string {
	return a.Decimal().String()
}

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a == 0
}

// Add returns a+b, failing on overflow.
func Add(a, b Amount) (Amount, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return a + b, nil
}

// Sum adds all values, failing on overflow.
func Sum(values ...Amount) (Amount, error) {
	var total Amount
	for _, v := range values {
		var err error
		if total, err = Add(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}
