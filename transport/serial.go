package transport

import (
	"context"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialConfig carries port parameters for an RS-232 attached terminal.
// The ZVT serial profile is 9600 baud, 8 data bits, no parity, 2 stop bits.
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:        port,
		BaudRate:    9600,
		ReadTimeout: 3 * time.Second,
	}
}

// Serial is a Device over an RS-232 port.
type Serial struct {
	cfg SerialConfig

	mu   sync.Mutex
	port serial.Port
}

func NewSerial(cfg SerialConfig) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	return &Serial{cfg: cfg}
}

func (s *Serial) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	mode := &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	port, err := serial.Open(s.cfg.Port, mode)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		port.Close()
		return err
	}
	s.port = port
	return nil
}

func (s *Serial) Read(p []byte) (int, error) {
	port := s.current()
	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	port := s.current()
	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Write(p)
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) current() serial.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}
