// Package link owns APDU exchange with the terminal.
//
// Ownership boundary:
// - the Channel contract: send one package, await acknowledgement, deliver
//   inbound packages whole
// - TCP framing (raw APDUs with length escape)
// - serial framing (DLE/STX/ETX, DLE doubling, CRC-16, byte ACK/NAK)
//
// A channel acknowledges inbound terminal packages with the 80 00 positive
// completion itself; clients never see acknowledgement traffic.
package link

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/holzweg/zvt/apdu"
)

var (
	ErrClosed      = errors.New("link: channel closed")
	ErrSendPending = errors.New("link: send already pending")
)

// SendOutcome classifies the terminal's reaction to a sent command.
type SendOutcome int

const (
	AcknowledgeReceived SendOutcome = iota
	NegativeAcknowledge
	Timeout
	TransportError
)

func (o SendOutcome) String() string {
	switch o {
	case AcknowledgeReceived:
		return "AcknowledgeReceived"
	case NegativeAcknowledge:
		return "NegativeAcknowledge"
	case Timeout:
		return "Timeout"
	default:
		return "TransportError"
	}
}

// SendResult is the acknowledgement for one sent package. Code carries the
// APRC of a negative acknowledgement (0x83: command not supported).
type SendResult struct {
	Outcome SendOutcome
	Code    byte
}

// Channel moves whole application packages between ECR and PT.
type Channel interface {
	// Send transmits one encoded package and blocks until the terminal
	// acknowledges it, the context is done, or the ack timeout elapses.
	Send(ctx context.Context, pkg []byte) (SendResult, error)
	// SetHandler registers the callback receiving inbound packages. The
	// callback runs on the reader goroutine and must not block.
	SetHandler(fn func(pkg []byte))
	Close() error
}

// Config tunes channel timing.
type Config struct {
	AckTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{AckTimeout: 5 * time.Second}
}

// framer turns a byte transport into whole APDUs.
type framer interface {
	// ReadPackage blocks until one whole APDU is available and returns its
	// raw bytes including control field and length.
	ReadPackage() ([]byte, error)
	// WritePackage transmits one APDU, including any link-level
	// acknowledgement discipline of the underlying transport.
	WritePackage(pkg []byte) error
	Close() error
}

var positiveCompletion = []byte{0x80, 0x00, 0x00}

// stream is the framer-independent channel core.
type stream struct {
	fr  framer
	cfg Config
	log zerolog.Logger

	handlerMu sync.RWMutex
	handler   func([]byte)

	pendingMu sync.Mutex
	pending   chan SendResult

	closeOnce sync.Once
	closed    chan struct{}
}

func newStream(fr framer, cfg Config, log zerolog.Logger) *stream {
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = DefaultConfig().AckTimeout
	}
	s := &stream{
		fr:     fr,
		cfg:    cfg,
		log:    log,
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *stream) SetHandler(fn func(pkg []byte)) {
	s.handlerMu.Lock()
	s.handler = fn
	s.handlerMu.Unlock()
}

func (s *stream) Send(ctx context.Context, pkg []byte) (SendResult, error) {
	select {
	case <-s.closed:
		return SendResult{Outcome: TransportError}, ErrClosed
	default:
	}

	wait := make(chan SendResult, 1)
	s.pendingMu.Lock()
	if s.pending != nil {
		s.pendingMu.Unlock()
		return SendResult{Outcome: TransportError}, ErrSendPending
	}
	s.pending = wait
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		s.pending = nil
		s.pendingMu.Unlock()
	}()

	if err := s.fr.WritePackage(pkg); err != nil {
		return SendResult{Outcome: TransportError}, err
	}

	timer := time.NewTimer(s.cfg.AckTimeout)
	defer timer.Stop()
	select {
	case res := <-wait:
		return res, nil
	case <-ctx.Done():
		return SendResult{Outcome: TransportError}, ctx.Err()
	case <-timer.C:
		return SendResult{Outcome: Timeout}, nil
	case <-s.closed:
		return SendResult{Outcome: TransportError}, ErrClosed
	}
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.fr.Close()
	})
	return err
}

func (s *stream) readLoop() {
	for {
		raw, err := s.fr.ReadPackage()
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.log.Debug().Err(err).Msg("link: read loop stopped")
				s.Close()
			}
			return
		}
		s.dispatch(raw)
	}
}

func (s *stream) dispatch(raw []byte) {
	if len(raw) < 2 {
		s.log.Warn().Int("bytes", len(raw)).Msg("link: dropping short package")
		return
	}
	cf := apdu.ControlField{raw[0], raw[1]}
	switch {
	case cf.IsPositiveAck():
		s.resolvePending(SendResult{Outcome: AcknowledgeReceived})
	case cf.IsNegativeAck():
		s.resolvePending(SendResult{Outcome: NegativeAcknowledge, Code: cf[1]})
	default:
		// Terminal-initiated package. Acknowledge from a separate
		// goroutine so the reader can keep consuming link traffic.
		go s.acknowledge()
		s.handlerMu.RLock()
		fn := s.handler
		s.handlerMu.RUnlock()
		if fn != nil {
			fn(raw)
		} else {
			s.log.Debug().Str("control_field", cf.String()).Msg("link: no handler, package dropped")
		}
	}
}

func (s *stream) resolvePending(res SendResult) {
	s.pendingMu.Lock()
	wait := s.pending
	s.pendingMu.Unlock()
	if wait == nil {
		s.log.Debug().Str("outcome", res.Outcome.String()).Msg("link: acknowledgement without pending send")
		return
	}
	select {
	case wait <- res:
	default:
	}
}

func (s *stream) acknowledge() {
	if err := s.fr.WritePackage(positiveCompletion); err != nil {
		s.log.Warn().Err(err).Msg("link: failed to acknowledge inbound package")
	}
}
