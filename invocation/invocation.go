package invocation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/protocol"
)

// EventHandler receives the events of a subscription. Events of one
// subscription are delivered sequentially, in the order they were read.
type EventHandler func(msg *protocol.Message)

const (
	statePending int32 = iota
	stateDone
)

// Invocation is one request in flight and the future of its response. It is
// resolved exactly once, either with a response or with an error, no matter
// how many attempts it takes to deliver the request.
type Invocation struct {
	request     *protocol.Message
	handler     EventHandler
	partitionID int32
	member      uuid.UUID
	conn        Connection
	deadline    time.Time

	attempts atomic.Int32
	state    atomic.Int32

	mut           sync.Mutex
	boundConn     Connection
	correlationID int64
	cleanup       []func()

	response *protocol.Message
	err      error
	done     chan struct{}
}

func newInvocation(request *protocol.Message) *Invocation {
	return &Invocation{
		request:     request,
		partitionID: -1,
		done:        make(chan struct{}),
	}
}

// Request returns the original request message.
func (inv *Invocation) Request() *protocol.Message {
	return inv.request
}

// Attempts returns the number of times the request was sent.
func (inv *Invocation) Attempts() int {
	return int(inv.attempts.Load())
}

// Deadline is the time after which the invocation fails with a timeout.
func (inv *Invocation) Deadline() time.Time {
	return inv.deadline
}

// Connection returns the connection the latest attempt was sent over and its
// correlation id.
func (inv *Invocation) Connection() (Connection, int64) {
	inv.mut.Lock()
	defer inv.mut.Unlock()

	return inv.boundConn, inv.correlationID
}

func (inv *Invocation) bind(conn Connection, correlationID int64) {
	inv.mut.Lock()
	defer inv.mut.Unlock()

	inv.boundConn = conn
	inv.correlationID = correlationID
}

// onDone registers f to run once the invocation is resolved. If it already
// is, f runs immediately.
func (inv *Invocation) onDone(f func()) {
	inv.mut.Lock()

	if inv.IsDone() {
		inv.mut.Unlock()
		f()

		return
	}

	inv.cleanup = append(inv.cleanup, f)
	inv.mut.Unlock()
}

// IsDone reports whether the invocation is resolved.
func (inv *Invocation) IsDone() bool {
	return inv.state.Load() == stateDone
}

// Done is closed once the invocation is resolved.
func (inv *Invocation) Done() <-chan struct{} {
	return inv.done
}

// Complete resolves the invocation with a response. It returns false if the
// invocation was already resolved.
func (inv *Invocation) Complete(response *protocol.Message) bool {
	return inv.resolve(response, nil)
}

// Fail resolves the invocation with an error. It returns false if the
// invocation was already resolved.
func (inv *Invocation) Fail(err error) bool {
	return inv.resolve(nil, err)
}

func (inv *Invocation) resolve(response *protocol.Message, err error) bool {
	if !inv.state.CompareAndSwap(statePending, stateDone) {
		return false
	}

	inv.response = response
	inv.err = err
	close(inv.done)

	inv.mut.Lock()
	cleanup := inv.cleanup
	inv.cleanup = nil
	inv.mut.Unlock()

	for _, f := range cleanup {
		f()
	}

	return true
}

// Result returns the outcome of a resolved invocation.
func (inv *Invocation) Result() (*protocol.Message, error) {
	<-inv.done
	return inv.response, inv.err
}
