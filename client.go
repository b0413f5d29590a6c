package zvt

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/holzweg/zvt/link"
)

// Client is the ECR side of a ZVT session. It owns one link channel for its
// lifetime and runs at most one command at a time; a second concurrent
// command fails with ErrBusy. Terminal-initiated packages are dispatched to
// the event surface whether or not a command is in flight.
type Client struct {
	cfg  Config
	link link.Channel
	log  zerolog.Logger

	statusHandlers       handlerList[StatusInformation]
	intermediateHandlers handlerList[IntermediateStatus]
	lineHandlers         handlerList[PrintLine]
	receiptHandlers      handlerList[Receipt]

	inflight atomic.Bool
	closed   atomic.Bool
	sessMu   sync.Mutex
	sess     *session
}

// NewClient wires the client to an open link channel. The channel is owned
// by the client from here on; Close releases it.
func NewClient(ch link.Channel, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Password > MaxPassword {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPassword, cfg.Password)
	}
	if cfg.CompletionTimeout == 0 {
		cfg.CompletionTimeout = DefaultConfig().CompletionTimeout
	}
	c := &Client{
		cfg:  cfg,
		link: ch,
		log:  log.With().Str("component", "zvt-client").Logger(),
	}
	ch.SetHandler(c.handlePackage)
	return c, nil
}

// Close unwires the event surface and closes the link channel. An in-flight
// command resolves through its own error path when the link drops.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.link.SetHandler(nil)
	return c.link.Close()
}
