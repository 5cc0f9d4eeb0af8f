package invocation

import (
	"github.com/maxpoletaev/gridlink/internal/generic"
)

type registryKey struct {
	connID        int64
	correlationID int64
}

// Registry tracks the invocations waiting for a response, keyed by the
// connection they were sent over and their correlation id on it. It is safe
// for concurrent use; removal is atomic, so exactly one caller wins when a
// response, a timeout and a connection loss race for the same invocation.
type Registry struct {
	invocations generic.SyncMap[registryKey, *Invocation]
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(connID, correlationID int64, inv *Invocation) {
	r.invocations.Store(registryKey{connID, correlationID}, inv)
}

func (r *Registry) Get(connID, correlationID int64) (*Invocation, bool) {
	return r.invocations.Load(registryKey{connID, correlationID})
}

// Remove deletes the invocation and returns it. Only one of the concurrent
// callers gets ok=true.
func (r *Registry) Remove(connID, correlationID int64) (*Invocation, bool) {
	return r.invocations.LoadAndDelete(registryKey{connID, correlationID})
}

// RemoveConnection deletes every invocation registered for the connection
// and returns the ones this call removed.
func (r *Registry) RemoveConnection(connID int64) []*Invocation {
	var removed []*Invocation

	r.invocations.Range(func(key registryKey, _ *Invocation) bool {
		if key.connID != connID {
			return true
		}

		if inv, ok := r.invocations.LoadAndDelete(key); ok {
			removed = append(removed, inv)
		}

		return true
	})

	return removed
}

// RemoveAll deletes every invocation and returns them.
func (r *Registry) RemoveAll() []*Invocation {
	var removed []*Invocation

	r.invocations.Range(func(key registryKey, _ *Invocation) bool {
		if inv, ok := r.invocations.LoadAndDelete(key); ok {
			removed = append(removed, inv)
		}

		return true
	})

	return removed
}

// Len returns the number of registered invocations.
func (r *Registry) Len() int {
	return r.invocations.Len()
}
