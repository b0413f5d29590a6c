package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

var ErrNotConnected = errors.New("transport: not connected")

// TCPConfig carries dialing parameters for a network-attached terminal.
type TCPConfig struct {
	Address        string
	ConnectTimeout time.Duration
}

func DefaultTCPConfig(address string) TCPConfig {
	return TCPConfig{
		Address:        address,
		ConnectTimeout: 5 * time.Second,
	}
}

// TCP is a Device over a single TCP connection. Most network-attached
// terminals listen on port 20007.
type TCP struct {
	cfg TCPConfig

	mu   sync.Mutex
	conn net.Conn
}

func NewTCP(cfg TCPConfig) *TCP {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	return &TCP{cfg: cfg}
}

func (t *TCP) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: t.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Address)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *TCP) Read(p []byte) (int, error) {
	conn := t.current()
	if conn == nil {
		return 0, ErrNotConnected
	}
	return conn.Read(p)
}

func (t *TCP) Write(p []byte) (int, error) {
	conn := t.current()
	if conn == nil {
		return 0, ErrNotConnected
	}
	return conn.Write(p)
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCP) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
