package amount

import "errors"

var (
	// ErrInvalidAmount indicates the text is not a decimal number or is negative.
	ErrInvalidAmount = errors.New("amount: invalid amount")

	// ErrTooPrecise indicates the value has more fractional digits than Decimals.
	ErrTooPrecise = errors.New("amount: more than 8 fractional digits")

	// ErrOverflow indicates the value does not fit in 64 bits of minor units.
	ErrOverflow = errors.New("amount: overflow")
)
