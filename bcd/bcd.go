// Package bcd owns packed binary-coded-decimal encoding.
//
// Ownership boundary:
// - unsigned integers <-> fixed-width BCD
// - decimal currency amounts <-> the 6-byte amount field
package bcd

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountLen is the wire width of a BCD currency amount: 12 digits of minor
// units, two digits per byte.
const AmountLen = 6

var (
	ErrOverflow     = errors.New("bcd: value does not fit requested width")
	ErrOutOfRange   = errors.New("bcd: amount out of range")
	ErrInvalidDigit = errors.New("bcd: nibble is not a decimal digit")
)

// maxAmountMinor is the largest amount in minor units that fits AmountLen.
var maxAmountMinor = decimal.New(999_999_999_999, 0)

// FromUint packs v into width bytes, two decimal digits per byte, high
// nibble first, left-padded with zeros.
func FromUint(v uint64, width int) ([]byte, error) {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v%10) | byte((v/10)%10)<<4
		v /= 100
	}
	if v != 0 {
		return nil, fmt.Errorf("%w: width %d", ErrOverflow, width)
	}
	return out, nil
}

// ToUint unpacks big-endian BCD bytes into an unsigned integer.
func ToUint(b []byte) (uint64, error) {
	var v uint64
	for _, octet := range b {
		hi := octet >> 4
		lo := octet & 0x0F
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("%w: 0x%02X", ErrInvalidDigit, octet)
		}
		v = v*100 + uint64(hi)*10 + uint64(lo)
	}
	return v, nil
}

// FromDecimal encodes a currency amount as AmountLen BCD bytes of minor
// units. Fractions beyond two places round half-up.
func FromDecimal(d decimal.Decimal) ([]byte, error) {
	minor := d.Shift(2).Round(0)
	if minor.Sign() < 0 || minor.Cmp(maxAmountMinor) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return FromUint(uint64(minor.IntPart()), AmountLen)
}

// ToDecimal decodes a BCD amount field back into major units.
func ToDecimal(b []byte) (decimal.Decimal, error) {
	minor, err := ToUint(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.New(int64(minor), -2), nil
}
