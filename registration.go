package zvt

import "github.com/holzweg/zvt/tlv"

// Config byte bit positions, counted from the least significant bit. The
// suppress/disable bits carry negative polarity on the wire.
const (
	bitSuppressPaymentReceipt = 1
	bitSuppressAdminReceipt   = 2
	bitIntermediateStatus     = 3
	bitDisablePaymentViaPT    = 4
	bitDisableAdminViaPT      = 5
	bitECRPrintType           = 7
)

// CurrencyEUR is the ISO-4217 numeric code used when none is configured.
const CurrencyEUR uint16 = 978

// RegistrationConfig shapes the Registration command. The zero value
// matches the common ECR setup: the ECR prints payment receipts itself,
// the PT keeps its admin receipts, no intermediate status messages.
type RegistrationConfig struct {
	// PaymentReceiptViaPT lets the terminal print payment receipts.
	// Unset, the printout is suppressed and receipts arrive as print
	// lines for the ECR printer.
	PaymentReceiptViaPT bool
	// SuppressAdminReceipts stops the terminal printing administration
	// receipts.
	SuppressAdminReceipts bool
	// IntermediateStatus asks the terminal for status messages while a
	// command runs (card inserted, PIN entry, host contact).
	IntermediateStatus bool
	// DisablePaymentViaPT forbids starting payments at the terminal.
	DisablePaymentViaPT bool
	// DisableAdminViaPT forbids administration functions at the terminal.
	DisableAdminViaPT bool
	// ServiceByte passes through to the service-byte parameter.
	ServiceByte byte
	// Currency is the ISO-4217 numeric payment currency; zero means EUR.
	Currency uint16
}

// ConfigByte folds the flags into the wire config byte. The ECR print-type
// bit is always set.
func (rc RegistrationConfig) ConfigByte() byte {
	b := setBit(0, bitECRPrintType)
	if !rc.PaymentReceiptViaPT {
		b = setBit(b, bitSuppressPaymentReceipt)
	}
	if rc.SuppressAdminReceipts {
		b = setBit(b, bitSuppressAdminReceipt)
	}
	if rc.IntermediateStatus {
		b = setBit(b, bitIntermediateStatus)
	}
	if rc.DisablePaymentViaPT {
		b = setBit(b, bitDisablePaymentViaPT)
	}
	if rc.DisableAdminViaPT {
		b = setBit(b, bitDisableAdminViaPT)
	}
	return b
}

func (rc RegistrationConfig) currency() uint16 {
	if rc.Currency == 0 {
		return CurrencyEUR
	}
	return rc.Currency
}

// permittedCommandsTLV advertises the replies the ECR can process beyond the
// base set: the permitted-commands list (tag 26) naming the print-text-block
// control field 06 D3.
func permittedCommandsTLV() ([]byte, error) {
	return tlv.Encode(
		tlv.Container(0x06,
			tlv.Container(0x26,
				tlv.Primitive(0x0A, []byte{0x06, 0xD3}),
			),
		),
	)
}
