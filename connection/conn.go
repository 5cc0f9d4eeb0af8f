package connection

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Close reasons reported by connections closed from within this package.
const (
	ReasonReadFailed  = "read failed"
	ReasonWriteFailed = "write failed"
)

// Handler receives every complete message read from the connection. It is
// called from the reader goroutine, so it must not block for long.
type Handler func(conn *Conn, msg *protocol.Message)

// CloseHandler is called exactly once after the connection is closed.
type CloseHandler func(conn *Conn)

type Option func(*Conn)

func WithHandler(h Handler) Option {
	return func(c *Conn) {
		c.handler = h
	}
}

func WithCloseHandler(h CloseHandler) Option {
	return func(c *Conn) {
		c.onClose = h
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Conn) {
		c.clock = clk
	}
}

func WithSendBufferSize(size int) Option {
	return func(c *Conn) {
		c.sendBufferSize = size
	}
}

func WithMaxFrameSize(size int) Option {
	return func(c *Conn) {
		c.maxFrameSize = size
	}
}

// Conn is a connection to a single member. Outbound messages are written by a
// dedicated writer goroutine in the order they were sent; inbound messages
// are decoded by a dedicated reader goroutine and passed to the handler.
// A closed Conn is never reused.
type Conn struct {
	id     int64
	remote cluster.Address
	raw    net.Conn
	clock  clock.Clock
	logger log.Logger

	handler        Handler
	onClose        CloseHandler
	sendBufferSize int
	maxFrameSize   int

	alive         atomic.Bool
	lastRead      atomic.Int64
	lastWrite     atomic.Int64
	correlationID atomic.Int64
	startedAt     time.Time

	mut           sync.RWMutex
	memberUUID    uuid.UUID
	memberAddr    cluster.Address
	serverVersion string
	closeReason   string
	closeErr      error

	queue      *sendQueue
	closeOnce  sync.Once
	done       chan struct{}
	writerDone chan struct{}
}

// New wraps an established transport (the preamble must already be written)
// and starts the reader and writer goroutines.
func New(id int64, remote cluster.Address, raw net.Conn, opts ...Option) *Conn {
	c := &Conn{
		id:             id,
		remote:         remote,
		raw:            raw,
		clock:          clock.New(),
		logger:         log.NewNopLogger(),
		handler:        func(*Conn, *protocol.Message) {},
		onClose:        func(*Conn) {},
		sendBufferSize: DefaultConfig().SendBufferSize,
		maxFrameSize:   protocol.DefaultMaxFrameSize,
		queue:          newSendQueue(),
		done:           make(chan struct{}),
		writerDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = log.With(c.logger, "conn_id", id, "remote", remote)

	now := c.clock.Now()
	c.startedAt = now
	c.lastRead.Store(now.UnixNano())
	c.lastWrite.Store(now.UnixNano())
	c.alive.Store(true)

	go func() {
		err := c.writeLoop()
		close(c.writerDone)

		if err != nil {
			c.Close(ReasonWriteFailed, err)
		}
	}()

	go func() {
		err := c.readLoop()
		c.Close(ReasonReadFailed, err)
	}()

	return c
}

func (c *Conn) ID() int64 {
	return c.id
}

// RemoteAddress is the address the connection was opened to.
func (c *Conn) RemoteAddress() cluster.Address {
	return c.remote
}

func (c *Conn) LocalAddr() net.Addr {
	return c.raw.LocalAddr()
}

// IsAlive reports whether the connection still accepts messages. It turns
// false exactly once.
func (c *Conn) IsAlive() bool {
	return c.alive.Load()
}

func (c *Conn) LastRead() time.Time {
	return time.Unix(0, c.lastRead.Load())
}

func (c *Conn) LastWrite() time.Time {
	return time.Unix(0, c.lastWrite.Load())
}

func (c *Conn) StartedAt() time.Time {
	return c.startedAt
}

// NextCorrelationID returns a new correlation id, unique among the messages
// sent over this connection. Ids start at 1.
func (c *Conn) NextCorrelationID() int64 {
	return c.correlationID.Add(1)
}

// SetMember records the identity of the member after authentication.
func (c *Conn) SetMember(id uuid.UUID, addr cluster.Address, serverVersion string) {
	c.mut.Lock()
	defer c.mut.Unlock()

	c.memberUUID = id
	c.memberAddr = addr
	c.serverVersion = serverVersion
}

// MemberUUID returns the member id, or uuid.Nil before authentication.
func (c *Conn) MemberUUID() uuid.UUID {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return c.memberUUID
}

// MemberAddress returns the address the member reported about itself.
func (c *Conn) MemberAddress() cluster.Address {
	c.mut.RLock()
	defer c.mut.RUnlock()

	if c.memberAddr.IsZero() {
		return c.remote
	}

	return c.memberAddr
}

func (c *Conn) ServerVersion() string {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return c.serverVersion
}

// CloseReason returns the reason and the cause the connection was closed
// with. Both are empty while the connection is alive.
func (c *Conn) CloseReason() (string, error) {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return c.closeReason, c.closeErr
}

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Pending returns the number of messages waiting for the writer.
func (c *Conn) Pending() int {
	return c.queue.len()
}

// Send queues the message for writing. It returns false if the connection is
// closed, in which case the message is not sent.
func (c *Conn) Send(msg *protocol.Message) bool {
	if !c.alive.Load() {
		return false
	}

	return c.queue.push(msg)
}

// Close closes the connection with the given reason and cause. Only the first
// call has an effect: it stops the writer, closes the socket and calls the
// close handler.
func (c *Conn) Close(reason string, cause error) {
	c.closeOnce.Do(func() {
		c.mut.Lock()
		c.closeReason = reason
		c.closeErr = cause
		c.mut.Unlock()

		c.alive.Store(false)

		unsent := c.queue.close()
		close(c.done)

		// Unblock a writer stuck on a full socket buffer.
		_ = c.raw.SetWriteDeadline(time.Now())
		<-c.writerDone

		if err := c.raw.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			level.Debug(c.logger).Log("msg", "failed to close socket", "err", err)
		}

		logger := level.Info(c.logger)
		if cause != nil && !errors.Is(cause, errs.ErrClientNotActive) {
			logger = level.Warn(c.logger)
		}

		logger.Log("msg", "connection closed", "reason", reason, "err", cause, "unsent", len(unsent))

		c.onClose(c)
	})
}

func (c *Conn) writeLoop() error {
	var (
		enc   protocol.Encoder
		batch []*protocol.Message
		buf   = make([]byte, c.sendBufferSize)
		n     int
	)

	for {
		select {
		case <-c.queue.signal:
		case <-c.done:
			return nil
		}

		batch = c.queue.drain(batch[:0])

		for i, msg := range batch {
			enc.Reset(msg)

			for !enc.Done() {
				n += enc.Encode(buf[n:])

				if n == len(buf) {
					if err := c.flush(buf[:n]); err != nil {
						return err
					}

					n = 0
				}
			}

			batch[i] = nil
		}

		if n > 0 {
			if err := c.flush(buf[:n]); err != nil {
				return err
			}

			n = 0
		}
	}
}

func (c *Conn) flush(p []byte) error {
	if _, err := c.raw.Write(p); err != nil {
		return errs.ErrIO.Wrap(fmt.Errorf("write: %w", err))
	}

	c.lastWrite.Store(c.clock.Now().UnixNano())

	return nil
}

func (c *Conn) readLoop() error {
	var (
		dec = protocol.NewDecoder(c.maxFrameSize)
		asm = protocol.NewFragmentAssembler()
		buf = make([]byte, 32<<10)
	)

	for {
		n, readErr := c.raw.Read(buf)

		if n > 0 {
			c.lastRead.Store(c.clock.Now().UnixNano())
			_, _ = dec.Write(buf[:n])

			if err := c.dispatch(dec, asm); err != nil {
				return err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return errs.ErrConnectionClosed.Wrap(fmt.Errorf("closed by remote: %w", readErr))
			}

			return errs.ErrIO.Wrap(fmt.Errorf("read: %w", readErr))
		}
	}
}

func (c *Conn) dispatch(dec *protocol.Decoder, asm *protocol.FragmentAssembler) error {
	for {
		msg, err := dec.Next()
		if err != nil {
			return err
		}

		if msg == nil {
			return nil
		}

		msg, complete, err := asm.Add(msg)
		if err != nil {
			return err
		}

		if complete {
			c.handle(msg)
		}
	}
}

func (c *Conn) handle(msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(c.logger).Log("msg", "message handler panicked", "message", msg, "panic", r)
		}
	}()

	c.handler(c, msg)
}

func (c *Conn) String() string {
	return fmt.Sprintf("Conn{id=%d, remote=%s, member=%s, alive=%v}", c.id, c.remote, c.MemberUUID(), c.IsAlive())
}
