package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

// listener is an event subscription registered on every live connection.
type listener struct {
	id      uuid.UUID
	request *protocol.Message
	handler invocation.EventHandler

	mut sync.Mutex
	// subs maps connection ids to the subscription invocations. A nil
	// value marks a registration in progress.
	subs    map[int64]*invocation.Invocation
	removed bool
}

// listenerRegistry re-sends the subscriptions over new connections, which
// also covers reconnects and switching to another cluster.
type listenerRegistry struct {
	client *Client

	mut       sync.RWMutex
	listeners map[uuid.UUID]*listener
}

func newListenerRegistry(c *Client) *listenerRegistry {
	return &listenerRegistry{
		client:    c,
		listeners: make(map[uuid.UUID]*listener),
	}
}

func (r *listenerRegistry) all() []*listener {
	r.mut.RLock()
	defer r.mut.RUnlock()

	result := make([]*listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		result = append(result, l)
	}

	return result
}

func (r *listenerRegistry) ConnectionAdded(conn *connection.Conn) {
	r.client.goAsync(func() {
		var err error

		for _, l := range r.all() {
			err = multierr.Append(err, r.register(r.client.ctx, l, conn))
		}

		if err != nil {
			level.Warn(r.client.logger).Log("msg", "failed to register listeners", "conn_id", conn.ID(), "err", err)
			return
		}

		r.client.manager.SetInitialized()
	})
}

func (r *listenerRegistry) ConnectionRemoved(conn *connection.Conn, _ error) {
	// The invocations are already failed and unregistered by the service.
	for _, l := range r.all() {
		l.mut.Lock()
		delete(l.subs, conn.ID())
		l.mut.Unlock()
	}
}

func (r *listenerRegistry) register(ctx context.Context, l *listener, conn *connection.Conn) error {
	l.mut.Lock()

	if _, ok := l.subs[conn.ID()]; ok || l.removed {
		l.mut.Unlock()
		return nil
	}

	l.subs[conn.ID()] = nil
	l.mut.Unlock()

	inv, _, err := r.client.service.InvokeWithHandler(ctx, l.request, l.handler, invocation.OnConnection(conn))

	l.mut.Lock()
	defer l.mut.Unlock()

	if err != nil {
		delete(l.subs, conn.ID())
		return fmt.Errorf("listener %s on connection %d: %w", l.id, conn.ID(), err)
	}

	if l.removed || !conn.IsAlive() {
		r.client.service.Deregister(inv)
		delete(l.subs, conn.ID())

		return nil
	}

	l.subs[conn.ID()] = inv

	return nil
}

func (r *listenerRegistry) remove(id uuid.UUID) bool {
	r.mut.Lock()
	l, ok := r.listeners[id]
	delete(r.listeners, id)
	r.mut.Unlock()

	if !ok {
		return false
	}

	l.mut.Lock()
	defer l.mut.Unlock()

	l.removed = true

	for connID, inv := range l.subs {
		if inv != nil {
			r.client.service.Deregister(inv)
		}

		delete(l.subs, connID)
	}

	return true
}

// clear drops every listener and returns how many there were.
func (r *listenerRegistry) clear() int {
	r.mut.RLock()
	ids := make([]uuid.UUID, 0, len(r.listeners))

	for id := range r.listeners {
		ids = append(ids, id)
	}
	r.mut.RUnlock()

	for _, id := range ids {
		r.remove(id)
	}

	return len(ids)
}

// AddListener sends the subscription request over every live connection and
// delivers the events to the handler. The request is resent over every
// connection opened later, including the ones to a new cluster. Events of
// one connection reach the handler in order.
func (c *Client) AddListener(ctx context.Context, request *protocol.Message, handler invocation.EventHandler) (uuid.UUID, error) {
	if !c.running.Load() {
		return uuid.Nil, errs.ErrClientNotActive
	}

	l := &listener{
		id:      uuid.New(),
		request: request.Copy(),
		handler: handler,
		subs:    make(map[int64]*invocation.Invocation),
	}

	c.listeners.mut.Lock()
	c.listeners.listeners[l.id] = l
	c.listeners.mut.Unlock()

	var (
		err        error
		registered int
		conns      = c.manager.Connections()
	)

	for _, conn := range conns {
		if regErr := c.listeners.register(ctx, l, conn); regErr != nil {
			err = multierr.Append(err, regErr)
			continue
		}

		registered++
	}

	if registered == 0 && len(conns) > 0 {
		c.listeners.remove(l.id)
		return uuid.Nil, err
	}

	if err != nil {
		level.Warn(c.logger).Log("msg", "listener registered on some connections only", "listener_id", l.id, "err", err)
	}

	return l.id, nil
}

// RemoveListener stops delivering the events of the listener. It returns
// false if there is no such listener. The members stop sending the events
// once the connections they were subscribed on are closed.
func (c *Client) RemoveListener(id uuid.UUID) bool {
	return c.listeners.remove(id)
}
