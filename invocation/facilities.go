package invocation

//go:generate mockgen -destination=mock/facilities_mock.go -package=mock -source=facilities.go

import (
	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/protocol"
)

// Connection is a member connection the service can send requests over.
type Connection interface {
	ID() int64
	MemberUUID() uuid.UUID
	NextCorrelationID() int64
	Send(msg *protocol.Message) bool
	IsAlive() bool
}

// ConnectionSource provides connections for routing.
type ConnectionSource interface {
	// MemberConnection returns the live connection to the member.
	MemberConnection(id uuid.UUID) (Connection, bool)
	// RandomConnection returns any live connection.
	RandomConnection() (Connection, bool)
}

// PartitionOwners resolves the owner of a partition for smart routing.
type PartitionOwners interface {
	Owner(partitionID int32) (uuid.UUID, bool)
}

// ErrorTranslator turns an error response into a typed error.
type ErrorTranslator interface {
	Translate(msg *protocol.Message) error
}
