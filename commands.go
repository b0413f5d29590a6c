package zvt

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/holzweg/zvt/apdu"
	"github.com/holzweg/zvt/bcd"
)

// Parameter prefixes within command payloads.
const (
	bmpAmount        = 0x04
	bmpTraceNumber   = 0x0B
	bmpReceiptNumber = 0x87
	bmpServiceByte   = 0x03
)

func (c *Client) password() ([]byte, error) {
	return bcd.FromUint(uint64(c.cfg.Password), 3)
}

// Registration (06 00) signs the ECR on and configures terminal behavior.
func (c *Client) Registration(ctx context.Context, rc RegistrationConfig) (Result, error) {
	pwd, err := c.password()
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	currency, err := bcd.FromUint(uint64(rc.currency()), 2)
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	payload := append([]byte{}, pwd...)
	payload = append(payload, rc.ConfigByte())
	payload = append(payload, currency...)
	payload = append(payload, bmpServiceByte, rc.ServiceByte)
	if c.cfg.ActivateTLVSupport {
		block, err := permittedCommandsTLV()
		if err != nil {
			return Result{State: StateError, Message: err.Error()}, err
		}
		payload = append(payload, block...)
	}
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlRegistration, Data: payload}, false)
}

// Payment (06 01) authorizes the given amount.
func (c *Client) Payment(ctx context.Context, amount decimal.Decimal) (Result, error) {
	enc, err := bcd.FromDecimal(amount)
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	payload := append([]byte{bmpAmount}, enc...)
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlAuthorization, Data: payload}, false)
}

// Reversal (06 30) voids the transaction with the given receipt number.
func (c *Client) Reversal(ctx context.Context, receiptNumber uint16) (Result, error) {
	pwd, err := c.password()
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	receipt, err := bcd.FromUint(uint64(receiptNumber), 2)
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	payload := append([]byte{}, pwd...)
	payload = append(payload, bmpReceiptNumber)
	payload = append(payload, receipt...)
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlReversal, Data: payload}, false)
}

// Refund (06 31) credits the given amount back to the card. A non-nil
// trace ties the refund to the original transaction; without one the trace
// parameter is omitted entirely.
func (c *Client) Refund(ctx context.Context, amount decimal.Decimal, trace *uint32) (Result, error) {
	pwd, err := c.password()
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	enc, err := bcd.FromDecimal(amount)
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	payload := append([]byte{}, pwd...)
	payload = append(payload, bmpAmount)
	payload = append(payload, enc...)
	if trace != nil {
		tr, err := bcd.FromUint(uint64(*trace), 3)
		if err != nil {
			return Result{State: StateError, Message: err.Error()}, err
		}
		payload = append(payload, bmpTraceNumber)
		payload = append(payload, tr...)
	}
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlRefund, Data: payload}, false)
}

// EndOfDay (06 50) runs the end-of-day batch.
func (c *Client) EndOfDay(ctx context.Context) (Result, error) {
	return c.passwordOnlyCommand(ctx, apdu.CtrlEndOfDay)
}

// SendTurnoverTotals (06 10) requests the turnover totals report.
func (c *Client) SendTurnoverTotals(ctx context.Context) (Result, error) {
	return c.passwordOnlyCommand(ctx, apdu.CtrlSendTurnoverTotals)
}

// RepeatLastReceipt (06 20) reprints the last receipt.
func (c *Client) RepeatLastReceipt(ctx context.Context) (Result, error) {
	return c.passwordOnlyCommand(ctx, apdu.CtrlRepeatReceipt)
}

// LogOff (06 02) signs the ECR off. The command completes on the
// acknowledgement; the terminal sends nothing further.
func (c *Client) LogOff(ctx context.Context) (Result, error) {
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlLogOff}, true)
}

// Abort (06 B0) asks the terminal to cancel the current operation. It
// completes on the acknowledgement.
func (c *Client) Abort(ctx context.Context) (Result, error) {
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlAbortCommand}, true)
}

// Diagnosis (06 70) runs the terminal's network diagnosis.
func (c *Client) Diagnosis(ctx context.Context) (Result, error) {
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlDiagnosis}, false)
}

// SoftwareUpdate (08 10) starts a terminal software update.
func (c *Client) SoftwareUpdate(ctx context.Context) (Result, error) {
	return c.sendCommand(ctx, apdu.Package{Control: apdu.CtrlSoftwareUpdate}, false)
}

// SendCustom transmits a caller-composed command and waits for its
// completion like any other command.
func (c *Client) SendCustom(ctx context.Context, control apdu.ControlField, payload []byte) (Result, error) {
	return c.sendCommand(ctx, apdu.Package{Control: control, Data: payload}, false)
}

func (c *Client) passwordOnlyCommand(ctx context.Context, control apdu.ControlField) (Result, error) {
	pwd, err := c.password()
	if err != nil {
		return Result{State: StateError, Message: err.Error()}, err
	}
	return c.sendCommand(ctx, apdu.Package{Control: control, Data: pwd}, false)
}
