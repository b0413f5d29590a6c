package link

import (
	"bufio"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/holzweg/zvt/transport"
)

// Serial control bytes per the ZVT serial annex.
const (
	dle = 0x10
	stx = 0x02
	etx = 0x03
	ack = 0x06
	nak = 0x15
)

const serialSendAttempts = 3

var (
	ErrLinkRejected = errors.New("link: frame rejected after retransmits")
	ErrLinkAckLost  = errors.New("link: no link-level acknowledgement")
)

// NewSerial wraps a connected serial transport with DLE/STX framing,
// CRC-16 verification and byte-level ACK/NAK handling. The transport must
// already be connected.
func NewSerial(dev transport.Device, cfg Config, log zerolog.Logger) Channel {
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = DefaultConfig().AckTimeout
	}
	l := log.With().Str("link", "serial").Logger()
	return newStream(newSerialFramer(dev, cfg.AckTimeout, l), cfg, l)
}

type serialFramer struct {
	dev        transport.Device
	r          *bufio.Reader
	ackTimeout time.Duration
	log        zerolog.Logger

	writeMu sync.Mutex
	linkAck chan byte
}

func newSerialFramer(dev transport.Device, ackTimeout time.Duration, log zerolog.Logger) *serialFramer {
	return &serialFramer{
		dev:        dev,
		r:          bufio.NewReader(dev),
		ackTimeout: ackTimeout,
		log:        log,
		linkAck:    make(chan byte, 1),
	}
}

// ReadPackage scans the byte stream for the next DLE STX ... DLE ETX frame,
// verifies its CRC and acknowledges it. Loose ACK/NAK bytes between frames
// are routed to a pending WritePackage.
func (f *serialFramer) ReadPackage() ([]byte, error) {
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case ack, nak:
			select {
			case f.linkAck <- b:
			default:
			}
		case dle:
			next, err := f.r.ReadByte()
			if err != nil {
				return nil, err
			}
			if next != stx {
				continue
			}
			pkg, ok, err := f.readFrameBody()
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			return pkg, nil
		}
	}
}

// readFrameBody consumes an opened frame up to DLE ETX plus CRC. It returns
// ok=false after replying NAK on a CRC mismatch.
func (f *serialFramer) readFrameBody() ([]byte, bool, error) {
	var payload []byte
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, false, err
		}
		if b != dle {
			payload = append(payload, b)
			continue
		}
		next, err := f.r.ReadByte()
		if err != nil {
			return nil, false, err
		}
		switch next {
		case dle:
			payload = append(payload, dle)
		case etx:
			crcBytes := make([]byte, 2)
			for i := range crcBytes {
				c, err := f.r.ReadByte()
				if err != nil {
					return nil, false, err
				}
				crcBytes[i] = c
			}
			got := uint16(crcBytes[0]) | uint16(crcBytes[1])<<8
			want := crc16(payload)
			if got != want {
				f.log.Warn().Uint16("got", got).Uint16("want", want).Msg("link: CRC mismatch, sending NAK")
				f.writeControl(nak)
				return nil, false, nil
			}
			f.writeControl(ack)
			return payload, true, nil
		default:
			// Stray DLE inside a frame; treat as frame damage.
			f.writeControl(nak)
			return nil, false, nil
		}
	}
}

// WritePackage frames the APDU and retransmits until the terminal ACKs.
func (f *serialFramer) WritePackage(pkg []byte) error {
	frame := buildSerialFrame(pkg)
	var lastErr error
	for attempt := 0; attempt < serialSendAttempts; attempt++ {
		f.writeMu.Lock()
		_, err := f.dev.Write(frame)
		f.writeMu.Unlock()
		if err != nil {
			return err
		}
		timer := time.NewTimer(f.ackTimeout)
		select {
		case b := <-f.linkAck:
			timer.Stop()
			if b == ack {
				return nil
			}
			lastErr = ErrLinkRejected
		case <-timer.C:
			lastErr = ErrLinkAckLost
		}
	}
	return fmt.Errorf("%w after %d attempts", lastErr, serialSendAttempts)
}

func (f *serialFramer) Close() error {
	return f.dev.Close()
}

func (f *serialFramer) writeControl(b byte) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if _, err := f.dev.Write([]byte{b}); err != nil {
		f.log.Warn().Err(err).Msg("link: control byte write failed")
	}
}

// buildSerialFrame wraps the APDU in DLE STX ... DLE ETX with DLE doubling
// and appends the CRC, low byte first.
func buildSerialFrame(pkg []byte) []byte {
	out := []byte{dle, stx}
	for _, b := range pkg {
		if b == dle {
			out = append(out, dle)
		}
		out = append(out, b)
	}
	out = append(out, dle, etx)
	crc := crc16(pkg)
	return append(out, byte(crc), byte(crc>>8))
}

// crc16 computes the serial frame checksum: polynomial 0x8408 (CCITT
// reflected), init 0, over the unescaped APDU followed by the ETX byte.
func crc16(pkg []byte) uint16 {
	var crc uint16
	update := func(b byte) {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	for _, b := range pkg {
		update(b)
	}
	update(etx)
	return crc
}
