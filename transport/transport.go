// Package transport owns the byte transports a link channel runs on.
//
// Ownership boundary:
// - the Device contract: connect, raw read/write, close
// - TCP and serial implementations
//
// Transports move opaque bytes. Package framing, acknowledgement and CRC
// belong to the link layer.
package transport

import (
	"context"
	"io"
)

// Device is a connected byte pipe to the payment terminal.
type Device interface {
	// Connect establishes the transport. It must be called once before
	// Read or Write.
	Connect(ctx context.Context) error
	io.Reader
	io.Writer
	io.Closer
}
