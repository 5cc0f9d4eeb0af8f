package cluster

import (
	"fmt"

	"github.com/google/uuid"
)

type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Member is a server node of the cluster, as announced in a members view.
type Member struct {
	// UUID is the unique identifier of the member, assigned by the cluster.
	UUID uuid.UUID
	// Address is the address the member advertises to clients.
	Address Address
	// Attributes are the user-defined attributes of the member.
	Attributes map[string]string
	// LiteMember is set for members that do not own any partitions.
	LiteMember bool
	// Version is the product version of the member.
	Version Version
}

func (m Member) String() string {
	return fmt.Sprintf("Member[%s]:%s", m.Address, m.UUID)
}
