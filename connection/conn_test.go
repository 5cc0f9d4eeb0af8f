package connection_test

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

// listen starts a TCP server that passes every accepted socket to serve after
// checking the preamble.
func listen(t *testing.T, serve func(net.Conn)) cluster.Address {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}

			preamble := make([]byte, len(protocol.Preamble))
			if _, err := io.ReadFull(raw, preamble); err != nil || string(preamble) != protocol.Preamble {
				_ = raw.Close()
				continue
			}

			go serve(raw)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	return cluster.NewAddress(host, port)
}

func echo(raw net.Conn) {
	connection.New(0, cluster.Address{}, raw, connection.WithHandler(func(c *connection.Conn, msg *protocol.Message) {
		c.Send(msg)
	}))
}

func dial(t *testing.T, addr cluster.Address, opts ...connection.Option) *connection.Conn {
	t.Helper()

	d, err := connection.NewDialer(connection.DefaultConfig())
	require.NoError(t, err)

	raw, err := d.Dial(context.Background(), addr)
	require.NoError(t, err)

	conn := connection.New(1, addr, raw, append(d.Options(), opts...)...)
	t.Cleanup(func() { conn.Close("test done", nil) })

	return conn
}

func newRequest(correlationID int64) *protocol.Message {
	msg := protocol.NewMessage(protocol.NewFrame(make([]byte, protocol.RequestInitialFrameSize)))
	msg.SetCorrelationID(correlationID)
	protocol.EncodeString(msg, "payload-"+strconv.FormatInt(correlationID, 10))

	return msg
}

func TestConn_SendReceiveInOrder(t *testing.T) {
	addr := listen(t, echo)

	received := make(chan *protocol.Message, 100)

	conn := dial(t, addr, connection.WithHandler(func(_ *connection.Conn, msg *protocol.Message) {
		received <- msg
	}))

	for i := int64(1); i <= 100; i++ {
		require.True(t, conn.Send(newRequest(i)))
	}

	for i := int64(1); i <= 100; i++ {
		select {
		case msg := <-received:
			require.Equal(t, i, msg.CorrelationID())
			require.Equal(t, "payload-"+strconv.FormatInt(i, 10), string(msg.Frames[1].Content))
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestConn_SmallSendBuffer(t *testing.T) {
	addr := listen(t, echo)
	received := make(chan *protocol.Message, 1)

	conn := dial(t, addr,
		connection.WithSendBufferSize(7),
		connection.WithHandler(func(_ *connection.Conn, msg *protocol.Message) {
			received <- msg
		}),
	)

	require.True(t, conn.Send(newRequest(42)))

	select {
	case msg := <-received:
		require.Equal(t, int64(42), msg.CorrelationID())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	addr := listen(t, echo)

	var closed int32

	conn := dial(t, addr, connection.WithCloseHandler(func(*connection.Conn) {
		atomic.AddInt32(&closed, 1)
	}))

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			conn.Close("closed by test", errs.ErrClientNotActive)
		}()
	}

	wg.Wait()

	reason, cause := conn.CloseReason()
	require.Equal(t, "closed by test", reason)
	require.ErrorIs(t, cause, errs.ErrClientNotActive)
	require.False(t, conn.IsAlive())
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))
	require.False(t, conn.Send(newRequest(1)))

	select {
	case <-conn.Done():
	default:
		t.Fatal("done channel is not closed")
	}
}

func TestConn_RemoteClose(t *testing.T) {
	addr := listen(t, func(raw net.Conn) {
		_ = raw.Close()
	})

	conn := dial(t, addr)

	select {
	case <-conn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not closed")
	}

	_, cause := conn.CloseReason()
	require.ErrorIs(t, cause, errs.ErrIO)
}

func TestConn_ProtocolViolation(t *testing.T) {
	addr := listen(t, func(raw net.Conn) {
		header := make([]byte, protocol.FrameHeaderSize)
		binary.LittleEndian.PutUint32(header, 2)
		_, _ = raw.Write(header)
	})

	conn := dial(t, addr)

	select {
	case <-conn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not closed")
	}

	reason, cause := conn.CloseReason()
	require.Equal(t, connection.ReasonReadFailed, reason)
	require.ErrorIs(t, cause, errs.ErrProtocol)
}

func TestConn_HandlerPanicDoesNotKillReader(t *testing.T) {
	addr := listen(t, echo)

	var calls int32

	received := make(chan struct{}, 2)

	conn := dial(t, addr, connection.WithHandler(func(_ *connection.Conn, msg *protocol.Message) {
		received <- struct{}{}

		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
	}))

	require.True(t, conn.Send(newRequest(1)))
	require.True(t, conn.Send(newRequest(2)))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out")
		}
	}

	require.True(t, conn.IsAlive())
}

func TestConn_CorrelationIDs(t *testing.T) {
	addr := listen(t, echo)
	conn := dial(t, addr)

	require.Equal(t, int64(1), conn.NextCorrelationID())
	require.Equal(t, int64(2), conn.NextCorrelationID())
}

func TestDialer_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	_ = ln.Close()

	d, err := connection.NewDialer(connection.DefaultConfig())
	require.NoError(t, err)

	_, err = d.Dial(context.Background(), cluster.NewAddress("127.0.0.1", port))
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestConfig_Validate(t *testing.T) {
	conf := connection.DefaultConfig()
	require.NoError(t, conf.Validate())

	conf.ConnectTimeout = 0
	require.ErrorIs(t, conf.Validate(), errs.ErrConfig)

	conf = connection.DefaultConfig()
	conf.TLS.Enabled = true
	conf.TLS.CheckRevocation = true
	require.ErrorIs(t, conf.Validate(), errs.ErrConfig)
}
