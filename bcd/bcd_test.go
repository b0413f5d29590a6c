package bcd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromUintPacksDigits(t *testing.T) {
	got, err := FromUint(123456, 3)
	if err != nil {
		t.Fatalf("from uint: %v", err)
	}
	if !bytes.Equal(got, []byte{0x12, 0x34, 0x56}) {
		t.Fatalf("unexpected packing: % X", got)
	}
}

func TestFromUintPadsLeft(t *testing.T) {
	got, err := FromUint(42, 2)
	if err != nil {
		t.Fatalf("from uint: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0x42}) {
		t.Fatalf("unexpected packing: % X", got)
	}
}

func TestFromUintOverflow(t *testing.T) {
	_, err := FromUint(1_000_000, 3)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestUintRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 9, 10, 99, 100, 999_999, 123_456_789_012} {
		enc, err := FromUint(n, 6)
		if err != nil {
			t.Fatalf("encode %d: %v", n, err)
		}
		dec, err := ToUint(enc)
		if err != nil {
			t.Fatalf("decode %d: %v", n, err)
		}
		if dec != n {
			t.Fatalf("round trip mismatch: got %d want %d", dec, n)
		}
	}
}

func TestToUintRejectsNonDecimalNibble(t *testing.T) {
	_, err := ToUint([]byte{0x12, 0xA4})
	if !errors.Is(err, ErrInvalidDigit) {
		t.Fatalf("expected ErrInvalidDigit, got %v", err)
	}
}

func TestFromDecimalAmount(t *testing.T) {
	amount := decimal.RequireFromString("1.23")
	got, err := FromDecimal(amount)
	if err != nil {
		t.Fatalf("from decimal: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x23}) {
		t.Fatalf("unexpected amount bytes: % X", got)
	}
}

func TestFromDecimalRoundsHalfUp(t *testing.T) {
	got, err := FromDecimal(decimal.RequireFromString("1.005"))
	if err != nil {
		t.Fatalf("from decimal: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x01}) {
		t.Fatalf("expected 1.005 to round to 1.01, got % X", got)
	}
}

func TestFromDecimalRange(t *testing.T) {
	if _, err := FromDecimal(decimal.RequireFromString("-0.01")); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for negative, got %v", err)
	}
	if _, err := FromDecimal(decimal.RequireFromString("10000000000.00")); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for overflow, got %v", err)
	}
	if _, err := FromDecimal(decimal.RequireFromString("9999999999.99")); err != nil {
		t.Fatalf("expected max amount to encode, got %v", err)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	want := decimal.RequireFromString("9999999999.99")
	enc, err := FromDecimal(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ToDecimal(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch: got %s want %s", got, want)
	}
}
