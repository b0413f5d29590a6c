// Package catalog owns the mapping from protocol result codes to text.
//
// Ownership boundary:
// - abort/result error codes -> message text
// - intermediate status codes -> localized message text
//
// The error catalog is English-only; every language falls back to it. The
// intermediate-status catalog carries English and German.
package catalog

import "fmt"

// Language selects the intermediate-status catalog.
type Language int

const (
	English Language = iota
	German
)

func (l Language) String() string {
	switch l {
	case German:
		return "de"
	default:
		return "en"
	}
}

// ErrorText resolves an abort or result code. Unknown codes yield a generic
// message carrying the hex code. Non-English languages fall back to English.
func ErrorText(code byte, _ Language) string {
	if msg, ok := errorTexts[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code 0x%02X", code)
}

// StatusText resolves an intermediate status code.
func StatusText(code byte, lang Language) string {
	table := statusTextsEN
	if lang == German {
		table = statusTextsDE
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	if lang == German {
		return fmt.Sprintf("unbekannter Statuscode 0x%02X", code)
	}
	return fmt.Sprintf("unknown status code 0x%02X", code)
}

var errorTexts = map[byte]string{
	0x00: "no error",
	0x51: "initialisation required",
	0x62: "turnover memory full",
	0x64: "card inserted upside down",
	0x65: "card data not present",
	0x66: "processing error",
	0x67: "function not permitted for ec and Maestro cards",
	0x68: "function not permitted for credit and fleet cards",
	0x6A: "turnover file full",
	0x6B: "function deactivated, terminal not registered",
	0x6C: "Card not readable",
	0x6E: "card expired",
	0x6F: "card unknown",
	0x77: "end-of-day batch not possible",
	0x78: "card expired or blocked",
	0x83: "function not possible",
	0x9C: "print system busy",
	0xA0: "receipt not printed",
	0xB1: "memory full",
	0xB2: "merchant journal full",
	0xB4: "already reversed",
	0xB5: "reversal not possible",
	0xC2: "diagnosis required",
	0xC3: "maximum amount exceeded",
	0xC8: "amount too small",
	0xD2: "connection error",
	0xDC: "card reader blocked",
	0xE0: "protocol error",
	0xE7: "vending machine out of order",
	0xE8: "no connection to authorisation host",
	0xF0: "speed insufficient",
	0xF1: "memory access error",
	0xFF: "system error",
}

var statusTextsEN = map[byte]string{
	0x00: "PT is waiting for amount confirmation",
	0x01: "please watch PIN pad",
	0x02: "please watch PIN pad",
	0x03: "not accepted",
	0x04: "PT is waiting for response from the host",
	0x05: "PT is sending auto reversal",
	0x06: "PT is sending post bookings",
	0x07: "card not admitted",
	0x08: "card unknown",
	0x09: "expired card",
	0x0A: "insert card",
	0x0B: "please remove card",
	0x0C: "card not readable",
	0x0D: "processing error",
	0x0E: "please wait",
	0x0F: "PT is commencing an automatic end-of-day batch",
	0x10: "invalid card",
	0x11: "balance display",
	0x12: "system malfunction",
	0x13: "payment not possible",
	0x14: "credit not sufficient",
	0x15: "incorrect PIN",
	0x16: "limit not sufficient",
	0x17: "please wait",
	0x18: "PIN try limit exceeded",
	0x19: "card data incorrect",
	0x1A: "service mode",
	0x1B: "approved, please fill up",
	0x1C: "approved, please take goods",
	0x1D: "declined",
	0xFF: "extended status in TLV container",
}

var statusTextsDE = map[byte]string{
	0x00: "PT wartet auf Betragsbestätigung",
	0x01: "bitte Eingabe am PIN-Pad beachten",
	0x02: "bitte Eingabe am PIN-Pad beachten",
	0x03: "nicht angenommen",
	0x04: "PT wartet auf Antwort des Autorisierungssystems",
	0x05: "PT sendet Auto-Storno",
	0x06: "PT sendet Nachbuchungen",
	0x07: "Karte nicht zugelassen",
	0x08: "Karte unbekannt",
	0x09: "Karte abgelaufen",
	0x0A: "Karte einstecken",
	0x0B: "bitte Karte entnehmen",
	0x0C: "Karte nicht lesbar",
	0x0D: "Verarbeitungsfehler",
	0x0E: "bitte warten",
	0x0F: "PT startet automatischen Kassenschnitt",
	0x10: "Karte ungültig",
	0x11: "Saldenanzeige",
	0x12: "Systemfehler",
	0x13: "Zahlung nicht möglich",
	0x14: "Guthaben nicht ausreichend",
	0x15: "PIN falsch",
	0x16: "Limit nicht ausreichend",
	0x17: "bitte warten",
	0x18: "PIN-Eingabe zu oft falsch",
	0x19: "Kartendaten fehlerhaft",
	0x1A: "Servicemodus",
	0x1B: "genehmigt, bitte tanken",
	0x1C: "genehmigt, bitte Ware entnehmen",
	0x1D: "abgelehnt",
	0xFF: "erweiterter Status im TLV-Container",
}
