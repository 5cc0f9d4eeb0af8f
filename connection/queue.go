package connection

import (
	"sync"

	"github.com/maxpoletaev/gridlink/protocol"
)

// sendQueue is an unbounded FIFO of outbound messages. Many goroutines push,
// a single writer drains.
type sendQueue struct {
	mut    sync.Mutex
	items  []*protocol.Message
	closed bool
	signal chan struct{}
}

func newSendQueue() *sendQueue {
	return &sendQueue{
		signal: make(chan struct{}, 1),
	}
}

// push appends the message and wakes up the writer. It returns false once the
// queue is closed.
func (q *sendQueue) push(msg *protocol.Message) bool {
	q.mut.Lock()

	if q.closed {
		q.mut.Unlock()
		return false
	}

	q.items = append(q.items, msg)
	q.mut.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// drain moves all queued messages into dst, preserving their order.
func (q *sendQueue) drain(dst []*protocol.Message) []*protocol.Message {
	q.mut.Lock()
	defer q.mut.Unlock()

	dst = append(dst, q.items...)

	for i := range q.items {
		q.items[i] = nil
	}

	q.items = q.items[:0]

	return dst
}

// close rejects further pushes and returns the messages that were never
// handed to the writer.
func (q *sendQueue) close() []*protocol.Message {
	q.mut.Lock()
	defer q.mut.Unlock()

	q.closed = true
	unsent := q.items
	q.items = nil

	return unsent
}

func (q *sendQueue) len() int {
	q.mut.Lock()
	defer q.mut.Unlock()

	return len(q.items)
}
