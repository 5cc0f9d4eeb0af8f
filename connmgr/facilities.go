package connmgr

//go:generate mockgen -destination=mock/facilities_mock.go -package=mock -source=facilities.go

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Invoker sends requests over the managed connections and receives
// everything they read.
type Invoker interface {
	Send(ctx context.Context, req *protocol.Message, opts ...invocation.InvokeOption) (*invocation.Invocation, error)
	HandleMessage(connID int64, msg *protocol.Message)
	ConnectionClosed(connID int64, cause error)
}

// ConnectionListener is notified when an authenticated connection is added
// to or removed from the live set. Calls are made outside of the manager
// locks.
type ConnectionListener interface {
	ConnectionAdded(conn *connection.Conn)
	ConnectionRemoved(conn *connection.Conn, cause error)
}

// ClusterChangeHandler is called when the client, after losing every
// connection, authenticates with a cluster that has a different id.
type ClusterChangeHandler func(prev, next uuid.UUID)

// DisconnectHandler is called when the manager gives up on the cluster: the
// reconnect mode forbids reconnecting, or reconnecting timed out.
type DisconnectHandler func(err error)
