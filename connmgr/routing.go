package connmgr

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/invocation"
)

// Routing exposes the connections of a manager to the invocation service.
// The service is created before the manager, which needs it as its invoker,
// so the manager is bound after construction. An unbound Routing has no
// connections.
type Routing struct {
	manager atomic.Pointer[Manager]
}

func (r *Routing) Bind(m *Manager) {
	r.manager.Store(m)
}

func (r *Routing) MemberConnection(id uuid.UUID) (invocation.Connection, bool) {
	m := r.manager.Load()
	if m == nil {
		return nil, false
	}

	conn, ok := m.MemberConnection(id)
	if !ok {
		return nil, false
	}

	return conn, true
}

func (r *Routing) RandomConnection() (invocation.Connection, bool) {
	m := r.manager.Load()
	if m == nil {
		return nil, false
	}

	conn, ok := m.RandomConnection()
	if !ok {
		return nil, false
	}

	return conn, true
}

var _ invocation.ConnectionSource = (*Routing)(nil)
