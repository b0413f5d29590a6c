package zvt

import "testing"

func TestParseEncoding(t *testing.T) {
	cases := map[string]Encoding{
		"":            EncodingCP437,
		"cp437":       EncodingCP437,
		"UTF-8":       EncodingUTF8,
		"latin1":      EncodingISO8859_1,
		"iso-8859-15": EncodingISO8859_15,
	}
	for raw, want := range cases {
		got, err := ParseEncoding(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s, want %s", raw, got, want)
		}
	}
	if _, err := ParseEncoding("ebcdic"); err == nil {
		t.Fatalf("unknown encoding must error")
	}
}

func TestDecodeTextCP437(t *testing.T) {
	// 0x99 is Ö in code page 437.
	if got := EncodingCP437.DecodeText([]byte{0x99, 'K', 'o'}); got != "ÖKo" {
		t.Fatalf("cp437 decode mismatch: %q", got)
	}
}

func TestDecodeTextLatin1(t *testing.T) {
	if got := EncodingISO8859_1.DecodeText([]byte{0xE4}); got != "ä" {
		t.Fatalf("latin1 decode mismatch: %q", got)
	}
}
