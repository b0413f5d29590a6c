// Package tlv owns the ZVT tag-length-value container format.
//
// Ownership boundary:
// - tag encoding: one byte, or two bytes when the first byte has bits 0-4 set
// - length encoding: short form below 0x80, long form 0x80|n + n length bytes
// - nested container composition and flat parsing
package tlv

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated      = errors.New("tlv: truncated object")
	ErrLengthTooLarge = errors.New("tlv: length exceeds two bytes")
)

// twoByteTagMarker: a first tag byte with bits 0-4 all set announces a
// second tag byte.
const twoByteTagMarker = 0x1F

// constructedBit marks a tag whose value is itself a TLV sequence.
const constructedBit = 0x20

// Item is one TLV object. A container carries Items; a primitive carries
// Value. Tags up to 0xFF encode as one byte, larger tags as two.
type Item struct {
	Tag   uint16
	Value []byte
	Items []Item
}

// Container builds a constructed item from child items.
func Container(tag uint16, items ...Item) Item {
	return Item{Tag: tag, Items: items}
}

// Primitive builds a leaf item.
func Primitive(tag uint16, value []byte) Item {
	return Item{Tag: tag, Value: value}
}

// Encode serializes items in order.
func Encode(items ...Item) ([]byte, error) {
	var out []byte
	for _, it := range items {
		b, err := encodeItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func encodeItem(it Item) ([]byte, error) {
	value := it.Value
	if it.Items != nil {
		nested, err := Encode(it.Items...)
		if err != nil {
			return nil, err
		}
		value = nested
	}
	out := appendTag(nil, it.Tag)
	out, err := appendLength(out, len(value))
	if err != nil {
		return nil, err
	}
	return append(out, value...), nil
}

func appendTag(dst []byte, tag uint16) []byte {
	if tag > 0xFF {
		return append(dst, byte(tag>>8), byte(tag))
	}
	return append(dst, byte(tag))
}

func appendLength(dst []byte, n int) ([]byte, error) {
	switch {
	case n < 0x80:
		return append(dst, byte(n)), nil
	case n <= 0xFF:
		return append(dst, 0x81, byte(n)), nil
	case n <= 0xFFFF:
		return append(dst, 0x82, byte(n>>8), byte(n)), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrLengthTooLarge, n)
	}
}

// Parse decodes a flat sequence of TLV objects. Constructed tags are parsed
// recursively into Items; their raw value is retained as well so callers can
// skip containers they do not understand.
func Parse(data []byte) ([]Item, error) {
	var items []Item
	for len(data) > 0 {
		it, rest, err := parseOne(data)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		data = rest
	}
	return items, nil
}

func parseOne(data []byte) (Item, []byte, error) {
	tag, n, err := readTag(data)
	if err != nil {
		return Item{}, nil, err
	}
	length, m, err := ReadLength(data[n:])
	if err != nil {
		return Item{}, nil, err
	}
	start := n + m
	if len(data) < start+length {
		return Item{}, nil, fmt.Errorf("%w: tag 0x%X wants %d value bytes", ErrTruncated, tag, length)
	}
	value := make([]byte, length)
	copy(value, data[start:start+length])
	it := Item{Tag: tag, Value: value}
	if isConstructed(tag) {
		nested, err := Parse(value)
		if err == nil {
			it.Items = nested
		}
	}
	return it, data[start+length:], nil
}

func isConstructed(tag uint16) bool {
	first := byte(tag)
	if tag > 0xFF {
		first = byte(tag >> 8)
	}
	return first&constructedBit != 0
}

func readTag(data []byte) (uint16, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing tag", ErrTruncated)
	}
	if data[0]&twoByteTagMarker == twoByteTagMarker {
		if len(data) < 2 {
			return 0, 0, fmt.Errorf("%w: missing second tag byte", ErrTruncated)
		}
		return uint16(data[0])<<8 | uint16(data[1]), 2, nil
	}
	return uint16(data[0]), 1, nil
}

// ReadLength decodes one length field and reports how many bytes it used.
// Exposed for callers embedding TLV blocks inside other formats.
func ReadLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing length", ErrTruncated)
	}
	first := data[0]
	if first < 0x80 {
		return int(first), 1, nil
	}
	n := int(first & 0x7F)
	if n > 2 {
		return 0, 0, fmt.Errorf("%w: %d length bytes", ErrLengthTooLarge, n)
	}
	if len(data) < 1+n {
		return 0, 0, fmt.Errorf("%w: truncated long-form length", ErrTruncated)
	}
	length := 0
	for _, b := range data[1 : 1+n] {
		length = length<<8 | int(b)
	}
	return length, 1 + n, nil
}

// Find returns the first item with the given tag, searching containers
// depth-first.
func Find(items []Item, tag uint16) (Item, bool) {
	for _, it := range items {
		if it.Tag == tag {
			return it, true
		}
		if nested, ok := Find(it.Items, tag); ok {
			return nested, true
		}
	}
	return Item{}, false
}
