package connection

import (
	"fmt"
	"time"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Config holds the socket options of member connections.
type Config struct {
	// ConnectTimeout bounds the TCP connect, the TLS handshake and the
	// preamble write together.
	ConnectTimeout time.Duration
	// KeepAlive is the TCP keep-alive period. Negative disables keep-alives.
	KeepAlive time.Duration
	// NoDelay disables Nagle's algorithm.
	NoDelay bool
	// Linger sets SO_LINGER in seconds. Negative leaves the OS default.
	Linger int
	// ReadBufferSize and WriteBufferSize set the socket buffer sizes. Zero
	// leaves the OS default.
	ReadBufferSize  int
	WriteBufferSize int
	// SendBufferSize is the size of the buffer the writer encodes into
	// before flushing to the socket.
	SendBufferSize int
	// MaxFrameSize bounds a single incoming frame.
	MaxFrameSize int
	TLS          TLSConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		KeepAlive:      15 * time.Second,
		NoDelay:        true,
		Linger:         -1,
		SendBufferSize: 128 << 10,
		MaxFrameSize:   protocol.DefaultMaxFrameSize,
	}
}

func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("connect timeout must be positive"))
	}

	if c.SendBufferSize < protocol.FrameHeaderSize {
		return errs.ErrConfig.Wrap(fmt.Errorf("send buffer size must be at least %d", protocol.FrameHeaderSize))
	}

	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("socket buffer sizes must not be negative"))
	}

	if c.MaxFrameSize <= protocol.FrameHeaderSize {
		return errs.ErrConfig.Wrap(fmt.Errorf("max frame size is too small"))
	}

	return c.TLS.Validate()
}
