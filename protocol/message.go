package protocol

import (
	"fmt"
)

// Offsets of the header fields inside the content of the initial frame.
const (
	TypeFieldOffset               = 0
	CorrelationIDFieldOffset      = TypeFieldOffset + 4
	PartitionIDFieldOffset        = CorrelationIDFieldOffset + 8
	ResponseBackupAcksFieldOffset = CorrelationIDFieldOffset + 8
	FragmentationIDOffset         = 0

	RequestInitialFrameSize  = PartitionIDFieldOffset + 4
	ResponseInitialFrameSize = ResponseBackupAcksFieldOffset + 1
	EventInitialFrameSize    = PartitionIDFieldOffset + 4
)

// Message is a sequence of frames. The first (initial) frame carries the
// message type, the correlation id and the partition id.
type Message struct {
	Frames []Frame

	// Retryable marks requests that are safe to resend after the connection
	// they were written to is lost.
	Retryable bool
}

// NewMessage creates a message from an initial frame. The initial frame
// always gets the unfragmented flags.
func NewMessage(initial Frame) *Message {
	initial.Flags |= FlagsUnfragmented

	return &Message{
		Frames: []Frame{initial},
	}
}

func (m *Message) AddFrame(f Frame) {
	m.Frames = append(m.Frames, f)
}

func (m *Message) initial() []byte {
	if len(m.Frames) == 0 {
		return nil
	}

	return m.Frames[0].Content
}

func (m *Message) Type() int32 {
	content := m.initial()
	if len(content) < TypeFieldOffset+4 {
		return 0
	}

	return int32(byteOrder.Uint32(content[TypeFieldOffset:]))
}

func (m *Message) SetType(t int32) {
	byteOrder.PutUint32(m.initial()[TypeFieldOffset:], uint32(t))
}

func (m *Message) CorrelationID() int64 {
	content := m.initial()
	if len(content) < CorrelationIDFieldOffset+8 {
		return 0
	}

	return int64(byteOrder.Uint64(content[CorrelationIDFieldOffset:]))
}

func (m *Message) SetCorrelationID(id int64) {
	byteOrder.PutUint64(m.initial()[CorrelationIDFieldOffset:], uint64(id))
}

// PartitionID returns the partition of a request or an event, or -1 if the
// message does not target a partition.
func (m *Message) PartitionID() int32 {
	content := m.initial()
	if len(content) < PartitionIDFieldOffset+4 {
		return -1
	}

	return int32(byteOrder.Uint32(content[PartitionIDFieldOffset:]))
}

func (m *Message) SetPartitionID(id int32) {
	byteOrder.PutUint32(m.initial()[PartitionIDFieldOffset:], uint32(id))
}

// IsEvent reports whether the message is a notification for a subscription
// rather than a response.
func (m *Message) IsEvent() bool {
	return len(m.Frames) > 0 && m.Frames[0].HasFlag(FlagIsEvent)
}

// IsFragmented reports whether the message is one fragment of a larger one.
func (m *Message) IsFragmented() bool {
	return len(m.Frames) > 0 && !m.Frames[0].HasFlag(FlagsUnfragmented)
}

// Size returns the total encoded size of the message.
func (m *Message) Size() int {
	size := 0
	for _, f := range m.Frames {
		size += f.Size()
	}

	return size
}

// Copy returns a message that shares frame contents with m except for the
// initial frame, so the header can be restamped without touching m.
func (m *Message) Copy() *Message {
	frames := make([]Frame, len(m.Frames))
	copy(frames, m.Frames)

	if len(frames) > 0 {
		initial := make([]byte, len(frames[0].Content))
		copy(initial, frames[0].Content)
		frames[0].Content = initial
	}

	return &Message{
		Frames:    frames,
		Retryable: m.Retryable,
	}
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{type=0x%06x, correlationID=%d, partitionID=%d, frames=%d, event=%v}",
		m.Type(), m.CorrelationID(), m.PartitionID(), len(m.Frames), m.IsEvent())
}

// FrameIterator walks the frames of a message during decoding.
type FrameIterator struct {
	frames []Frame
	next   int
}

// Iterator returns an iterator positioned at the initial frame.
func (m *Message) Iterator() *FrameIterator {
	return &FrameIterator{frames: m.Frames}
}

func (it *FrameIterator) HasNext() bool {
	return it.next < len(it.frames)
}

// Next returns the current frame and advances. Past the end it returns an
// empty end frame, which makes truncated messages decode as empty values
// instead of panicking.
func (it *FrameIterator) Next() Frame {
	if it.next >= len(it.frames) {
		return EndFrame
	}

	f := it.frames[it.next]
	it.next++

	return f
}

// Peek returns the current frame without advancing.
func (it *FrameIterator) Peek() (Frame, bool) {
	if it.next >= len(it.frames) {
		return Frame{}, false
	}

	return it.frames[it.next], true
}
