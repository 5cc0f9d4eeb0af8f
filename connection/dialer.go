package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Dialer opens transports to members: TCP with the configured socket options,
// an optional TLS layer and the protocol preamble.
type Dialer struct {
	conf Config
}

func NewDialer(conf Config) (*Dialer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &Dialer{conf: conf}, nil
}

// Dial connects to the address and writes the preamble. Everything must
// complete within the connect timeout or the context deadline, whichever is
// earlier. The returned transport is ready to be wrapped with New.
func (d *Dialer) Dial(ctx context.Context, addr cluster.Address) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.conf.ConnectTimeout)
	defer cancel()

	nd := net.Dialer{
		KeepAlive: d.conf.KeepAlive,
	}

	raw, err := nd.DialContext(ctx, "tcp", addr.DialAddr())
	if err != nil {
		return nil, d.wrapDialErr(ctx, fmt.Errorf("dial %s: %w", addr, err))
	}

	if err := d.setSocketOptions(raw); err != nil {
		_ = raw.Close()
		return nil, errs.ErrIO.Wrap(fmt.Errorf("socket options: %w", err))
	}

	if d.conf.TLS.Enabled {
		tlsConf, err := d.conf.TLS.Build(addr.Host)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}

		tlsConn := tls.Client(raw, tlsConf)

		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, d.wrapDialErr(ctx, fmt.Errorf("tls handshake with %s: %w", addr, err))
		}

		raw = tlsConn
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetWriteDeadline(deadline)
	}

	if _, err := raw.Write([]byte(protocol.Preamble)); err != nil {
		_ = raw.Close()
		return nil, d.wrapDialErr(ctx, fmt.Errorf("write preamble to %s: %w", addr, err))
	}

	_ = raw.SetWriteDeadline(time.Time{})

	return raw, nil
}

func (d *Dialer) setSocketOptions(raw net.Conn) error {
	tcpConn, ok := raw.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(d.conf.NoDelay); err != nil {
		return err
	}

	if d.conf.Linger >= 0 {
		if err := tcpConn.SetLinger(d.conf.Linger); err != nil {
			return err
		}
	}

	if d.conf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(d.conf.ReadBufferSize); err != nil {
			return err
		}
	}

	if d.conf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(d.conf.WriteBufferSize); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dialer) wrapDialErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errs.ErrTimeout.Wrap(err)
	}

	return errs.ErrIO.Wrap(err)
}

// Options returns the connection options matching the dialer config.
func (d *Dialer) Options() []Option {
	return []Option{
		WithSendBufferSize(d.conf.SendBufferSize),
		WithMaxFrameSize(d.conf.MaxFrameSize),
	}
}
