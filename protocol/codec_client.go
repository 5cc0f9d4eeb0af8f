package protocol

import (
	"github.com/google/uuid"
)

const (
	PingRequestType  int32 = 0x000B00
	PingResponseType int32 = 0x000B01

	AddClusterViewListenerRequestType  int32 = 0x000300
	AddClusterViewListenerResponseType int32 = 0x000301
	MembersViewEventType               int32 = 0x000302
	PartitionsViewEventType            int32 = 0x000303

	// ErrorResponseType marks a response that carries server errors instead
	// of a result.
	ErrorResponseType int32 = 0
)

const (
	memberInfoUUIDOffset      = 0
	memberInfoLiteOffset      = memberInfoUUIDOffset + uuidSize
	memberInfoInitialSize     = memberInfoLiteOffset + boolSize
	versionMajorOffset        = 0
	versionMinorOffset        = versionMajorOffset + byteSize
	versionPatchOffset        = versionMinorOffset + byteSize
	versionInitialSize        = versionPatchOffset + byteSize
	viewVersionOffset         = EventInitialFrameSize
	viewEventInitialFrameSize = viewVersionOffset + intSize
)

func EncodePingRequest() *Message {
	msg := NewMessage(newInitialFrame(PingRequestType, 0))
	msg.Retryable = true

	return msg
}

func EncodePingResponse() *Message {
	return NewMessage(newResponseFrame(PingResponseType, 0))
}

// EncodeAddClusterViewListenerRequest subscribes the connection to members
// and partitions view events.
func EncodeAddClusterViewListenerRequest() *Message {
	msg := NewMessage(newInitialFrame(AddClusterViewListenerRequestType, 0))
	msg.Retryable = false

	return msg
}

func EncodeAddClusterViewListenerResponse() *Message {
	return NewMessage(newResponseFrame(AddClusterViewListenerResponseType, 0))
}

// MemberVersion is the product version of a member.
type MemberVersion struct {
	Major uint8
	Minor uint8
	Patch uint8
}

// MemberInfo is the wire form of a cluster member.
type MemberInfo struct {
	Address    AddressInfo
	UUID       uuid.UUID
	Attributes map[string]string
	LiteMember bool
	Version    MemberVersion
}

func encodeMemberInfo(msg *Message, m *MemberInfo) {
	msg.AddFrame(BeginFrame)

	initial := make([]byte, memberInfoInitialSize)
	putUUID(initial, memberInfoUUIDOffset, m.UUID)
	putBool(initial, memberInfoLiteOffset, m.LiteMember)
	msg.AddFrame(NewFrame(initial))

	EncodeAddress(msg, m.Address)
	EncodeStringMap(msg, m.Attributes)

	msg.AddFrame(BeginFrame)
	version := []byte{m.Version.Major, m.Version.Minor, m.Version.Patch}
	msg.AddFrame(NewFrame(version))
	msg.AddFrame(EndFrame)

	msg.AddFrame(EndFrame)
}

func decodeMemberInfo(it *FrameIterator) MemberInfo {
	it.Next() // begin

	initial := it.Next()

	m := MemberInfo{
		UUID:       readUUID(initial.Content, memberInfoUUIDOffset),
		LiteMember: readBool(initial.Content, memberInfoLiteOffset),
	}

	m.Address = DecodeAddress(it)
	m.Attributes = DecodeStringMap(it)

	it.Next() // version begin
	version := it.Next().Content
	m.Version = MemberVersion{
		Major: readUint8(version, versionMajorOffset),
		Minor: readUint8(version, versionMinorOffset),
		Patch: readUint8(version, versionPatchOffset),
	}
	FastForwardToEnd(it)

	// Newer members append fields such as address maps.
	FastForwardToEnd(it)

	return m
}

// MembersViewEvent carries the complete member list of the cluster.
type MembersViewEvent struct {
	Version int32
	Members []MemberInfo
}

func EncodeMembersViewEvent(ev *MembersViewEvent) *Message {
	initial := newEventFrame(MembersViewEventType, viewEventInitialFrameSize-EventInitialFrameSize)
	putInt32(initial.Content, viewVersionOffset, ev.Version)

	msg := NewMessage(initial)
	msg.AddFrame(BeginFrame)

	for i := range ev.Members {
		encodeMemberInfo(msg, &ev.Members[i])
	}

	msg.AddFrame(EndFrame)

	return msg
}

func DecodeMembersViewEvent(msg *Message) *MembersViewEvent {
	it := msg.Iterator()
	initial := it.Next()

	ev := &MembersViewEvent{
		Version: readInt32(initial.Content, viewVersionOffset),
	}

	it.Next() // begin

	for !NextFrameIsDataStructureEnd(it) {
		ev.Members = append(ev.Members, decodeMemberInfo(it))
	}

	it.Next() // end

	return ev
}

// PartitionEntry lists the partitions owned by one member.
type PartitionEntry struct {
	MemberUUID uuid.UUID
	Partitions []int32
}

// PartitionsViewEvent carries the complete partition table.
type PartitionsViewEvent struct {
	Version    int32
	Partitions []PartitionEntry
}

func EncodePartitionsViewEvent(ev *PartitionsViewEvent) *Message {
	initial := newEventFrame(PartitionsViewEventType, viewEventInitialFrameSize-EventInitialFrameSize)
	putInt32(initial.Content, viewVersionOffset, ev.Version)

	msg := NewMessage(initial)
	msg.AddFrame(BeginFrame)

	keys := make([]uuid.UUID, 0, len(ev.Partitions))
	for _, p := range ev.Partitions {
		keys = append(keys, p.MemberUUID)
		EncodeInt32List(msg, p.Partitions)
	}

	msg.AddFrame(EndFrame)
	EncodeUUIDList(msg, keys)

	return msg
}

func DecodePartitionsViewEvent(msg *Message) *PartitionsViewEvent {
	it := msg.Iterator()
	initial := it.Next()

	ev := &PartitionsViewEvent{
		Version: readInt32(initial.Content, viewVersionOffset),
	}

	var values [][]int32

	it.Next() // begin

	for !NextFrameIsDataStructureEnd(it) {
		values = append(values, DecodeInt32List(it))
	}

	it.Next() // end

	keys := DecodeUUIDList(it)

	for i, key := range keys {
		if i >= len(values) {
			break
		}

		ev.Partitions = append(ev.Partitions, PartitionEntry{
			MemberUUID: key,
			Partitions: values[i],
		})
	}

	return ev
}
