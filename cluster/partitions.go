package cluster

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/twmb/murmur3"
)

// partitionHashSeed is the seed of the murmur3 hash used to map keys to
// partitions. It must match the one used by the members.
const partitionHashSeed = 0x01000193

// PartitionOwnership lists the partitions owned by one member.
type PartitionOwnership struct {
	Member     uuid.UUID
	Partitions []int32
}

// PartitionTable maps partitions to their owners. The number of partitions
// is fixed by the first cluster the client authenticates with and never
// changes afterwards.
type PartitionTable struct {
	mut        sync.RWMutex
	count      int32
	version    int32
	sourceConn int64
	owners     map[int32]uuid.UUID
}

func NewPartitionTable() *PartitionTable {
	return &PartitionTable{
		owners: make(map[int32]uuid.UUID),
	}
}

// CheckAndSetCount records the partition count on first use and reports
// whether the given count matches the recorded one.
func (t *PartitionTable) CheckAndSetCount(count int32) bool {
	t.mut.Lock()
	defer t.mut.Unlock()

	if t.count == 0 {
		t.count = count
		return true
	}

	return t.count == count
}

// Count returns the partition count, or zero if it is not known yet.
func (t *PartitionTable) Count() int32 {
	t.mut.RLock()
	defer t.mut.RUnlock()

	return t.count
}

func (t *PartitionTable) Version() int32 {
	t.mut.RLock()
	defer t.mut.RUnlock()

	return t.version
}

// Apply replaces the partition table. A view received over a different
// connection than the previous one is always applied, since versions are
// only comparable within the events of one member. Empty views are ignored.
func (t *PartitionTable) Apply(connID int64, version int32, entries []PartitionOwnership) bool {
	if len(entries) == 0 {
		return false
	}

	t.mut.Lock()
	defer t.mut.Unlock()

	if connID == t.sourceConn && version <= t.version {
		return false
	}

	owners := make(map[int32]uuid.UUID, t.count)
	for _, e := range entries {
		for _, p := range e.Partitions {
			owners[p] = e.Member
		}
	}

	t.owners = owners
	t.version = version
	t.sourceConn = connID

	return true
}

// Reset forgets the owners but keeps the partition count.
func (t *PartitionTable) Reset() {
	t.mut.Lock()
	defer t.mut.Unlock()

	t.owners = make(map[int32]uuid.UUID)
	t.version = 0
	t.sourceConn = 0
}

// Owner returns the member that owns the partition.
func (t *PartitionTable) Owner(partitionID int32) (uuid.UUID, bool) {
	t.mut.RLock()
	defer t.mut.RUnlock()

	id, ok := t.owners[partitionID]

	return id, ok
}

// PartitionID returns the partition of a serialized key, or -1 if the
// partition count is not known yet.
func (t *PartitionTable) PartitionID(key []byte) int32 {
	count := t.Count()
	if count == 0 {
		return -1
	}

	return HashToPartition(key, count)
}

// HashToPartition maps a serialized key to one of count partitions.
func HashToPartition(key []byte, count int32) int32 {
	hash := int32(murmur3.SeedSum32(partitionHashSeed, key))
	if hash == math.MinInt32 {
		return 0
	}

	if hash < 0 {
		hash = -hash
	}

	return hash % count
}
