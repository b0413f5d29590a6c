package zvt

import "errors"

var (
	ErrBusy            = errors.New("zvt: another command is in flight")
	ErrClientClosed    = errors.New("zvt: client closed")
	ErrInvalidPassword = errors.New("zvt: password exceeds six digits")
)
