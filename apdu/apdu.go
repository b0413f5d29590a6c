// Package apdu owns the application-package wire contract.
//
// Ownership boundary:
// - control field constants for commands and replies
// - package serialization: control field + length + payload
// - package parsing of whole buffers delivered by a link channel
package apdu

import (
	"errors"
	"fmt"
)

var (
	ErrShortFrame     = errors.New("apdu: fewer than 3 bytes")
	ErrLengthMismatch = errors.New("apdu: declared length disagrees with buffer")
	ErrPayloadTooLong = errors.New("apdu: payload exceeds 65535 bytes")
)

// ControlField is the two-byte CCRC/APRC pair identifying a package.
type ControlField [2]byte

// Commands issued by the ECR.
var (
	CtrlRegistration       = ControlField{0x06, 0x00}
	CtrlAuthorization      = ControlField{0x06, 0x01}
	CtrlLogOff             = ControlField{0x06, 0x02}
	CtrlSendTurnoverTotals = ControlField{0x06, 0x10}
	CtrlRepeatReceipt      = ControlField{0x06, 0x20}
	CtrlReversal           = ControlField{0x06, 0x30}
	CtrlRefund             = ControlField{0x06, 0x31}
	CtrlEndOfDay           = ControlField{0x06, 0x50}
	CtrlDiagnosis          = ControlField{0x06, 0x70}
	CtrlAbortCommand       = ControlField{0x06, 0xB0}
	CtrlSoftwareUpdate     = ControlField{0x08, 0x10}
)

// Replies and notifications issued by the PT.
var (
	CtrlStatusInformation  = ControlField{0x04, 0x0F}
	CtrlIntermediateStatus = ControlField{0x04, 0xFF}
	CtrlCompletion         = ControlField{0x06, 0x0F}
	CtrlAbort              = ControlField{0x06, 0x1E}
	CtrlPrintLine          = ControlField{0x06, 0xD1}
	CtrlPrintTextBlock     = ControlField{0x06, 0xD3}
	CtrlPositiveAck        = ControlField{0x80, 0x00}
)

// negativeAckClass marks the CCRC of a negative acknowledgement; the APRC
// carries the error code.
const negativeAckClass = 0x84

func (cf ControlField) String() string {
	return fmt.Sprintf("%02X %02X", cf[0], cf[1])
}

// Uint16 folds the control field into a single dispatch key.
func (cf ControlField) Uint16() uint16 {
	return uint16(cf[0])<<8 | uint16(cf[1])
}

// IsPositiveAck reports whether the package acknowledges a command.
func (cf ControlField) IsPositiveAck() bool {
	return cf == CtrlPositiveAck
}

// IsNegativeAck reports whether the package rejects a command. The APRC is
// the rejection code (0x83 means command not supported).
func (cf ControlField) IsNegativeAck() bool {
	return cf[0] == negativeAckClass
}

// Package is one application package as exchanged with the PT.
type Package struct {
	Control ControlField
	Data    []byte
}

// Encode serializes the package. Payloads up to 254 bytes use the
// single-byte length; longer payloads use the 0xFF escape with a
// little-endian 16-bit length.
func (p Package) Encode() ([]byte, error) {
	n := len(p.Data)
	if n > 0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLong, n)
	}
	if n <= 0xFE {
		out := make([]byte, 0, 3+n)
		out = append(out, p.Control[0], p.Control[1], byte(n))
		return append(out, p.Data...), nil
	}
	out := make([]byte, 0, 5+n)
	out = append(out, p.Control[0], p.Control[1], 0xFF, byte(n), byte(n>>8))
	return append(out, p.Data...), nil
}

// Decode parses one whole application package. The buffer must hold exactly
// one package; link channels deliver packages whole.
func Decode(buf []byte) (Package, error) {
	if len(buf) < 3 {
		return Package{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(buf))
	}
	cf := ControlField{buf[0], buf[1]}
	declared := int(buf[2])
	body := buf[3:]
	if buf[2] == 0xFF {
		if len(body) < 2 {
			return Package{}, fmt.Errorf("%w: truncated length escape", ErrShortFrame)
		}
		declared = int(body[0]) | int(body[1])<<8
		body = body[2:]
	}
	if declared != len(body) {
		return Package{}, fmt.Errorf("%w: declared %d, have %d", ErrLengthMismatch, declared, len(body))
	}
	data := make([]byte, len(body))
	copy(data, body)
	return Package{Control: cf, Data: data}, nil
}
