package link

import (
	"bufio"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/holzweg/zvt/transport"
)

// NewTCP wraps a connected transport carrying raw APDUs, the framing used
// by network-attached terminals. The transport must already be connected.
func NewTCP(dev transport.Device, cfg Config, log zerolog.Logger) Channel {
	return newStream(newTCPFramer(dev), cfg, log.With().Str("link", "tcp").Logger())
}

// tcpFramer reads and writes bare APDUs on a stream transport.
type tcpFramer struct {
	dev transport.Device
	r   *bufio.Reader

	writeMu sync.Mutex
}

func newTCPFramer(dev transport.Device) *tcpFramer {
	return &tcpFramer{dev: dev, r: bufio.NewReader(dev)}
}

func (f *tcpFramer) ReadPackage() ([]byte, error) {
	head := make([]byte, 3)
	if _, err := io.ReadFull(f.r, head); err != nil {
		return nil, err
	}
	length := int(head[2])
	if head[2] == 0xFF {
		ext := make([]byte, 2)
		if _, err := io.ReadFull(f.r, ext); err != nil {
			return nil, err
		}
		length = int(ext[0]) | int(ext[1])<<8
		head = append(head, ext...)
	}
	pkg := make([]byte, len(head)+length)
	copy(pkg, head)
	if length > 0 {
		if _, err := io.ReadFull(f.r, pkg[len(head):]); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

func (f *tcpFramer) WritePackage(pkg []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, err := f.dev.Write(pkg)
	return err
}

func (f *tcpFramer) Close() error {
	return f.dev.Close()
}
