package invocation

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// eventDispatcher runs event handlers on a fixed set of workers. Events are
// sharded by correlation id, so the events of one subscription keep their
// order while different subscriptions run in parallel.
type eventDispatcher struct {
	workers []chan func()
	stop    chan struct{}
	once    sync.Once
	logger  log.Logger
}

func newEventDispatcher(workers, queueSize int, logger log.Logger) *eventDispatcher {
	d := &eventDispatcher{
		workers: make([]chan func(), workers),
		stop:    make(chan struct{}),
		logger:  logger,
	}

	for i := range d.workers {
		ch := make(chan func(), queueSize)
		d.workers[i] = ch

		go func() {
			for {
				select {
				case f := <-ch:
					d.run(f)
				case <-d.stop:
					return
				}
			}
		}()
	}

	return d
}

func (d *eventDispatcher) run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(d.logger).Log("msg", "event handler panicked", "panic", r)
		}
	}()

	f()
}

// dispatch queues f on the worker that owns the key. It blocks while that
// worker's queue is full and returns false after close.
func (d *eventDispatcher) dispatch(key int64, f func()) bool {
	if key < 0 {
		key = -key
	}

	ch := d.workers[key%int64(len(d.workers))]

	select {
	case ch <- f:
		return true
	case <-d.stop:
		return false
	}
}

// close stops the workers and drops the queued events. It does not wait for
// the running handlers, so a handler may shut the service down.
func (d *eventDispatcher) close() {
	d.once.Do(func() {
		close(d.stop)
	})
}
