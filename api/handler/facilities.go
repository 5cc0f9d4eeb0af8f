package handler

//go:generate mockgen -destination=mock/facilities_mock.go -package=mock -source=facilities.go

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/connmgr"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Client is the part of the running client the handlers inspect.
type Client interface {
	ClientUUID() uuid.UUID
	ClusterID() uuid.UUID
	State() connmgr.State
	Members() []cluster.Member
	Connections() []*connection.Conn
	PartitionCount() int32
	PartitionOwner(key []byte) (uuid.UUID, int32, bool)
	Invoke(ctx context.Context, request *protocol.Message) (*protocol.Message, error)
	InvokeOnMember(ctx context.Context, request *protocol.Message, member uuid.UUID) (*protocol.Message, error)
}
