package protocol

import (
	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/internal/binario"
)

const (
	intSize  = 4
	longSize = 8
	byteSize = 1
	boolSize = 1
	uuidSize = binario.UUIDSize
)

// AddressInfo is the wire form of a member address.
type AddressInfo struct {
	Host string
	Port int32
}

// newInitialFrame allocates the initial frame of a request with room for
// extra fixed-size fields after the header.
func newInitialFrame(messageType int32, extra int) Frame {
	content := make([]byte, RequestInitialFrameSize+extra)
	byteOrder.PutUint32(content[TypeFieldOffset:], uint32(messageType))
	byteOrder.PutUint32(content[PartitionIDFieldOffset:], uint32(0xFFFFFFFF))

	return Frame{Content: content, Flags: FlagsUnfragmented}
}

func newResponseFrame(messageType int32, extra int) Frame {
	content := make([]byte, ResponseInitialFrameSize+extra)
	byteOrder.PutUint32(content[TypeFieldOffset:], uint32(messageType))

	return Frame{Content: content, Flags: FlagsUnfragmented}
}

func newEventFrame(messageType int32, extra int) Frame {
	content := make([]byte, EventInitialFrameSize+extra)
	byteOrder.PutUint32(content[TypeFieldOffset:], uint32(messageType))
	byteOrder.PutUint32(content[PartitionIDFieldOffset:], uint32(0xFFFFFFFF))

	return Frame{Content: content, Flags: FlagsUnfragmented | FlagIsEvent}
}

func putUUID(buf []byte, offset int, value uuid.UUID) {
	w := binario.NewWriter(buf[offset:offset], byteOrder)
	w.WriteUUID(value)
}

func readUUID(buf []byte, offset int) uuid.UUID {
	return binario.NewReader(buf, offset, byteOrder).ReadUUID()
}

func putInt32(buf []byte, offset int, value int32) {
	byteOrder.PutUint32(buf[offset:], uint32(value))
}

func readInt32(buf []byte, offset int) int32 {
	return binario.NewReader(buf, offset, byteOrder).ReadInt32()
}

func readUint8(buf []byte, offset int) uint8 {
	return binario.NewReader(buf, offset, byteOrder).ReadUint8()
}

func readBool(buf []byte, offset int) bool {
	return readUint8(buf, offset) != 0
}

func putBool(buf []byte, offset int, value bool) {
	if value {
		buf[offset] = 1
		return
	}

	buf[offset] = 0
}

// EncodeString appends a UTF-8 string frame.
func EncodeString(msg *Message, value string) {
	msg.AddFrame(NewFrame([]byte(value)))
}

func DecodeString(it *FrameIterator) string {
	return string(it.Next().Content)
}

// EncodeNullableString appends a string frame, or a null frame for nil.
func EncodeNullableString(msg *Message, value *string) {
	if value == nil {
		msg.AddFrame(NullFrame)
		return
	}

	EncodeString(msg, *value)
}

func DecodeNullableString(it *FrameIterator) *string {
	if NextFrameIsNull(it) {
		return nil
	}

	s := DecodeString(it)

	return &s
}

func EncodeBytes(msg *Message, value []byte) {
	msg.AddFrame(NewFrame(value))
}

func DecodeBytes(it *FrameIterator) []byte {
	return it.Next().Content
}

func EncodeNullableBytes(msg *Message, value []byte) {
	if value == nil {
		msg.AddFrame(NullFrame)
		return
	}

	EncodeBytes(msg, value)
}

func DecodeNullableBytes(it *FrameIterator) []byte {
	if NextFrameIsNull(it) {
		return nil
	}

	return DecodeBytes(it)
}

// EncodeStringList appends a list of strings delimited by begin and end
// frames.
func EncodeStringList(msg *Message, values []string) {
	msg.AddFrame(BeginFrame)

	for _, v := range values {
		EncodeString(msg, v)
	}

	msg.AddFrame(EndFrame)
}

func DecodeStringList(it *FrameIterator) []string {
	var values []string

	it.Next() // begin

	for !NextFrameIsDataStructureEnd(it) {
		values = append(values, DecodeString(it))
	}

	it.Next() // end

	return values
}

// EncodeStringMap appends a map as a list of alternating key and value frames.
func EncodeStringMap(msg *Message, values map[string]string) {
	msg.AddFrame(BeginFrame)

	for k, v := range values {
		EncodeString(msg, k)
		EncodeString(msg, v)
	}

	msg.AddFrame(EndFrame)
}

func DecodeStringMap(it *FrameIterator) map[string]string {
	values := make(map[string]string)

	it.Next() // begin

	for !NextFrameIsDataStructureEnd(it) {
		k := DecodeString(it)
		v := DecodeString(it)
		values[k] = v
	}

	it.Next() // end

	return values
}

// EncodeInt32List appends a single frame with the packed values.
func EncodeInt32List(msg *Message, values []int32) {
	content := make([]byte, len(values)*intSize)
	for i, v := range values {
		putInt32(content, i*intSize, v)
	}

	msg.AddFrame(NewFrame(content))
}

func DecodeInt32List(it *FrameIterator) []int32 {
	content := it.Next().Content
	values := make([]int32, len(content)/intSize)

	for i := range values {
		values[i] = readInt32(content, i*intSize)
	}

	return values
}

// EncodeUUIDList appends a single frame with the packed values.
func EncodeUUIDList(msg *Message, values []uuid.UUID) {
	w := binario.NewWriter(make([]byte, 0, len(values)*uuidSize), byteOrder)
	for _, v := range values {
		w.WriteUUID(v)
	}

	msg.AddFrame(NewFrame(w.Bytes()))
}

func DecodeUUIDList(it *FrameIterator) []uuid.UUID {
	content := it.Next().Content
	values := make([]uuid.UUID, len(content)/uuidSize)

	for i := range values {
		values[i] = readUUID(content, i*uuidSize)
	}

	return values
}

// EncodeAddress appends an address data structure.
func EncodeAddress(msg *Message, addr AddressInfo) {
	msg.AddFrame(BeginFrame)

	initial := make([]byte, intSize)
	putInt32(initial, 0, addr.Port)
	msg.AddFrame(NewFrame(initial))

	EncodeString(msg, addr.Host)
	msg.AddFrame(EndFrame)
}

func DecodeAddress(it *FrameIterator) AddressInfo {
	it.Next() // begin

	initial := it.Next()
	port := readInt32(initial.Content, 0)
	host := DecodeString(it)

	FastForwardToEnd(it)

	return AddressInfo{Host: host, Port: port}
}

func EncodeNullableAddress(msg *Message, addr *AddressInfo) {
	if addr == nil {
		msg.AddFrame(NullFrame)
		return
	}

	EncodeAddress(msg, *addr)
}

func DecodeNullableAddress(it *FrameIterator) *AddressInfo {
	if NextFrameIsNull(it) {
		return nil
	}

	addr := DecodeAddress(it)

	return &addr
}

// NextFrameIsNull consumes the next frame if it is a null frame.
func NextFrameIsNull(it *FrameIterator) bool {
	f, ok := it.Peek()
	if ok && f.IsNull() {
		it.Next()
		return true
	}

	return false
}

// NextFrameIsDataStructureEnd reports whether the next frame closes the
// current data structure. A truncated message counts as closed.
func NextFrameIsDataStructureEnd(it *FrameIterator) bool {
	f, ok := it.Peek()
	return !ok || f.IsEndFrame()
}

// FastForwardToEnd skips the remaining frames of the current data structure,
// including nested ones, and consumes its end frame. Newer servers may append
// fields that this client does not know about.
func FastForwardToEnd(it *FrameIterator) {
	depth := 1

	for depth > 0 && it.HasNext() {
		f := it.Next()

		switch {
		case f.IsEndFrame():
			depth--
		case f.IsBeginFrame():
			depth++
		}
	}
}
