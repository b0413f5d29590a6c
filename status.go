package zvt

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/holzweg/zvt/bcd"
	"github.com/holzweg/zvt/catalog"
	"github.com/holzweg/zvt/tlv"
)

var (
	ErrShortBMP   = errors.New("zvt: truncated bit-map parameter")
	ErrUnknownBMP = errors.New("zvt: unknown bit-map parameter")
)

// StatusInformation is the structured transaction result from a 04 0F
// package. Optional fields are pointers; absent fields stay nil or empty.
type StatusInformation struct {
	ResultCode    byte
	ResultMessage string

	Amount         *decimal.Decimal
	TraceNumber    *uint32
	Time           string // HHMMSS
	Date           string // MMDD
	ExpiryDate     string // YYMM
	ReceiptNumber  *uint16
	CardType       *byte
	CardNumber     string // PAN as transmitted; masked digits render as *
	Currency       *uint16
	TerminalID     string
	VUNumber       string
	AID            string
	AdditionalText string
	MultiReference []byte
	TLV            []tlv.Item
}

// Approved reports a zero result code.
func (si StatusInformation) Approved() bool {
	return si.ResultCode == 0
}

// Fixed widths for bit-map parameters we skip rather than surface. Keeping
// the table complete enough lets a decoder step over fields from newer
// terminal firmware without losing the rest of the record.
var bmpFixedLen = map[byte]int{
	0x19: 1, 0x27: 1, 0x8A: 1, 0x8C: 1, 0xA0: 1, 0xD0: 1,
	0x0D: 2, 0x0E: 2, 0x17: 2, 0x49: 2, 0x87: 2,
	0x0B: 3, 0x0C: 3, 0x37: 3, 0x88: 3, 0xAA: 3,
	0x29: 4, 0xBA: 5, 0x04: 6, 0x3B: 8, 0x2A: 15,
}

// Variable-length parameters: value is prefixed by its digit count in
// F-padded BCD bytes, two for LL, three for LLL.
var bmpVarPrefix = map[byte]int{
	0x22: 2, 0x23: 2, 0x8B: 2,
	0x24: 3, 0x3C: 3, 0x60: 3,
}

// parseStatusInformation walks the BMP sequence of a status payload.
func parseStatusInformation(payload []byte, enc Encoding, lang catalog.Language) (StatusInformation, error) {
	si := StatusInformation{}
	p := payload
	for len(p) > 0 {
		tag := p[0]
		p = p[1:]
		if tag == 0x06 {
			// Trailing TLV block.
			length, n, err := tlv.ReadLength(p)
			if err != nil {
				return si, fmt.Errorf("zvt: status TLV block: %w", err)
			}
			if len(p) < n+length {
				return si, fmt.Errorf("%w: TLV block", ErrShortBMP)
			}
			items, err := tlv.Parse(p[n : n+length])
			if err != nil {
				return si, fmt.Errorf("zvt: status TLV block: %w", err)
			}
			si.TLV = append(si.TLV, items...)
			p = p[n+length:]
			continue
		}

		value, rest, err := cutBMPValue(tag, p)
		if err != nil {
			return si, err
		}
		p = rest
		if err := si.apply(tag, value, enc, lang); err != nil {
			return si, err
		}
	}
	return si, nil
}

// cutBMPValue splits off one parameter value using the fixed-length table
// or the LL/LLL prefix.
func cutBMPValue(tag byte, p []byte) (value, rest []byte, err error) {
	if width, ok := bmpFixedLen[tag]; ok {
		if len(p) < width {
			return nil, nil, fmt.Errorf("%w: 0x%02X wants %d bytes", ErrShortBMP, tag, width)
		}
		return p[:width], p[width:], nil
	}
	if prefix, ok := bmpVarPrefix[tag]; ok {
		if len(p) < prefix {
			return nil, nil, fmt.Errorf("%w: 0x%02X length prefix", ErrShortBMP, tag)
		}
		n := 0
		for _, b := range p[:prefix] {
			n = n*10 + int(b&0x0F)
		}
		p = p[prefix:]
		if len(p) < n {
			return nil, nil, fmt.Errorf("%w: 0x%02X wants %d bytes", ErrShortBMP, tag, n)
		}
		return p[:n], p[n:], nil
	}
	return nil, nil, fmt.Errorf("%w: 0x%02X", ErrUnknownBMP, tag)
}

func (si *StatusInformation) apply(tag byte, v []byte, enc Encoding, lang catalog.Language) error {
	switch tag {
	case 0x04:
		amount, err := bcd.ToDecimal(v)
		if err != nil {
			return err
		}
		si.Amount = &amount
	case 0x0B:
		n, err := bcd.ToUint(v)
		if err != nil {
			return err
		}
		trace := uint32(n)
		si.TraceNumber = &trace
	case 0x0C:
		si.Time = bcdDigits(v)
	case 0x0D:
		si.Date = bcdDigits(v)
	case 0x0E:
		si.ExpiryDate = bcdDigits(v)
	case 0x17:
		n, err := bcd.ToUint(v)
		if err != nil {
			return err
		}
		receipt := uint16(n)
		si.ReceiptNumber = &receipt
	case 0x19:
		cardType := v[0]
		si.CardType = &cardType
	case 0x22:
		si.CardNumber = panDigits(v)
	case 0x27:
		si.ResultCode = v[0]
		if si.ResultCode != 0 {
			si.ResultMessage = catalog.ErrorText(si.ResultCode, lang)
		}
	case 0x29:
		si.TerminalID = bcdDigits(v)
	case 0x2A:
		si.VUNumber = string(bytes.TrimRight(v, "\x00 "))
	case 0x3B:
		si.AID = string(bytes.TrimRight(v, "\x00 "))
	case 0x49:
		n, err := bcd.ToUint(v)
		if err != nil {
			return err
		}
		cc := uint16(n)
		si.Currency = &cc
	case 0x3C:
		si.AdditionalText = enc.DecodeText(v)
	case 0x60:
		si.MultiReference = append([]byte(nil), v...)
	default:
		// Recognized width, nothing to surface.
	}
	return nil
}

// bcdDigits renders packed digits verbatim, preserving leading zeros.
func bcdDigits(v []byte) string {
	return hex.EncodeToString(v)
}

// panDigits renders an F-padded, possibly masked PAN. Masking nibbles (0xE)
// become *, fill nibbles (0xF) end the number.
func panDigits(v []byte) string {
	out := make([]byte, 0, len(v)*2)
	for _, octet := range v {
		for _, nibble := range [2]byte{octet >> 4, octet & 0x0F} {
			switch {
			case nibble <= 9:
				out = append(out, '0'+nibble)
			case nibble == 0xE:
				out = append(out, '*')
			default:
				return string(out)
			}
		}
	}
	return string(out)
}
