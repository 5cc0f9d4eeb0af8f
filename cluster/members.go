package cluster

import (
	"sync"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/internal/set"
)

// MembershipDiff describes how a new members view differs from the previous
// one. Members are listed in the order the cluster reported them.
type MembershipDiff struct {
	Added   []Member
	Removed []Member
}

func (d MembershipDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// MembersView holds the latest member list announced by the cluster. A view
// with a version not newer than the current one is ignored, except for the
// first view received after a reset.
type MembersView struct {
	mut         sync.RWMutex
	version     int32
	members     map[uuid.UUID]Member
	order       []uuid.UUID
	initialized bool
	ready       chan struct{}
}

func NewMembersView() *MembersView {
	return &MembersView{
		members: make(map[uuid.UUID]Member),
		ready:   make(chan struct{}),
	}
}

// Apply replaces the member list if the version is newer than the current one.
// It returns the difference and whether the view was applied.
func (v *MembersView) Apply(version int32, members []Member) (MembershipDiff, bool) {
	v.mut.Lock()
	defer v.mut.Unlock()

	if v.initialized && version <= v.version {
		return MembershipDiff{}, false
	}

	var (
		diff    MembershipDiff
		oldIDs  = set.New(v.order...)
		newIDs  = set.New[uuid.UUID]()
		updated = make(map[uuid.UUID]Member, len(members))
		order   = make([]uuid.UUID, 0, len(members))
	)

	for _, m := range members {
		if newIDs.Has(m.UUID) {
			continue
		}

		newIDs.Add(m.UUID)
		updated[m.UUID] = m
		order = append(order, m.UUID)

		if !oldIDs.Has(m.UUID) {
			diff.Added = append(diff.Added, m)
		}
	}

	for _, id := range v.order {
		if !newIDs.Has(id) {
			diff.Removed = append(diff.Removed, v.members[id])
		}
	}

	v.version = version
	v.members = updated
	v.order = order

	if !v.initialized {
		v.initialized = true
		close(v.ready)
	}

	return diff, true
}

// Reset forgets all members. It is used when the client switches to another
// cluster; the removed members are returned.
func (v *MembersView) Reset() []Member {
	v.mut.Lock()
	defer v.mut.Unlock()

	removed := make([]Member, 0, len(v.order))
	for _, id := range v.order {
		removed = append(removed, v.members[id])
	}

	v.version = 0
	v.members = make(map[uuid.UUID]Member)
	v.order = nil

	if v.initialized {
		v.initialized = false
		v.ready = make(chan struct{})
	}

	return removed
}

// Ready returns a channel that is closed once the first view is applied.
func (v *MembersView) Ready() <-chan struct{} {
	v.mut.RLock()
	defer v.mut.RUnlock()

	return v.ready
}

// Members returns the members in the order reported by the cluster.
func (v *MembersView) Members() []Member {
	v.mut.RLock()
	defer v.mut.RUnlock()

	members := make([]Member, 0, len(v.order))
	for _, id := range v.order {
		members = append(members, v.members[id])
	}

	return members
}

func (v *MembersView) Member(id uuid.UUID) (Member, bool) {
	v.mut.RLock()
	defer v.mut.RUnlock()

	m, ok := v.members[id]

	return m, ok
}

func (v *MembersView) HasMember(id uuid.UUID) bool {
	_, ok := v.Member(id)
	return ok
}

func (v *MembersView) Version() int32 {
	v.mut.RLock()
	defer v.mut.RUnlock()

	return v.version
}

func (v *MembersView) Len() int {
	v.mut.RLock()
	defer v.mut.RUnlock()

	return len(v.members)
}
