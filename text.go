package zvt

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding selects the character set for text fields in terminal replies.
type Encoding int

const (
	EncodingCP437 Encoding = iota
	EncodingUTF8
	EncodingISO8859_1
	EncodingISO8859_2
	EncodingISO8859_15
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingISO8859_1:
		return "iso-8859-1"
	case EncodingISO8859_2:
		return "iso-8859-2"
	case EncodingISO8859_15:
		return "iso-8859-15"
	default:
		return "cp437"
	}
}

// ParseEncoding resolves a configuration string.
func ParseEncoding(raw string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "cp437", "codepage437", "ibm437":
		return EncodingCP437, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return EncodingISO8859_1, nil
	case "iso-8859-2", "iso8859-2", "latin2":
		return EncodingISO8859_2, nil
	case "iso-8859-15", "iso8859-15", "latin9":
		return EncodingISO8859_15, nil
	default:
		return EncodingCP437, fmt.Errorf("zvt: unknown encoding %q", raw)
	}
}

// DecodeText converts reply bytes into a string. Undecodable input falls
// back to the raw bytes.
func (e Encoding) DecodeText(b []byte) string {
	var cm *charmap.Charmap
	switch e {
	case EncodingUTF8:
		return string(b)
	case EncodingISO8859_1:
		cm = charmap.ISO8859_1
	case EncodingISO8859_2:
		cm = charmap.ISO8859_2
	case EncodingISO8859_15:
		cm = charmap.ISO8859_15
	default:
		cm = charmap.CodePage437
	}
	out, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
