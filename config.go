package zvt

import (
	"time"

	"github.com/holzweg/zvt/catalog"
)

// MaxPassword bounds the six-digit BCD terminal password.
const MaxPassword = 999_999

// Config is the client configuration surface. The zero value of Encoding is
// code page 437, the character set most field terminals ship with.
type Config struct {
	// Password is the six-digit merchant password sent with most commands.
	Password uint32
	// CompletionTimeout bounds the wait between acknowledgement and the
	// terminal's completion or abort. The timer re-arms on inbound
	// activity so long interactive card flows do not trip it.
	CompletionTimeout time.Duration
	// Encoding decodes text fields in replies.
	Encoding Encoding
	// Language selects the intermediate-status catalog. Error text is
	// English regardless.
	Language catalog.Language
	// ActivateTLVSupport makes Registration advertise the print-text-block
	// reply (06 D3) in a permitted-commands TLV.
	ActivateTLVSupport bool
}

func DefaultConfig() Config {
	return Config{
		CompletionTimeout: 5 * time.Minute,
		Encoding:          EncodingCP437,
		Language:          catalog.English,
	}
}
