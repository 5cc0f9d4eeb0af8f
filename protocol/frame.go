// Package protocol implements the framed binary client protocol: frames,
// messages, an incremental decoder and a resumable encoder, and the codecs
// the client core needs on its own (authentication, ping, cluster view
// events and error responses).
//
// Wire layout of a frame:
//
//	+----------------+--------------+-----------------+
//	| length (int32) | flags (u16)  | content ...     |
//	+----------------+--------------+-----------------+
//
// The length covers the 6 header bytes and the content. All multi-byte
// fields are little-endian. A message is a sequence of frames terminated by a
// frame carrying FlagIsFinal.
package protocol

import "encoding/binary"

// Preamble identifies the client protocol. It is written once, right after
// the transport is established and before the first frame.
const Preamble = "CP2"

// FrameHeaderSize is the size of the length and flags fields.
const FrameHeaderSize = 6

const (
	FlagBeginFragment      uint16 = 1 << 15
	FlagEndFragment        uint16 = 1 << 14
	FlagIsFinal            uint16 = 1 << 13
	FlagBeginDataStructure uint16 = 1 << 12
	FlagEndDataStructure   uint16 = 1 << 11
	FlagIsNull             uint16 = 1 << 10
	FlagIsEvent            uint16 = 1 << 9
	FlagBackupAware        uint16 = 1 << 8
	FlagBackupEvent        uint16 = 1 << 7

	// FlagsUnfragmented marks the first frame of a message that was not split
	// into fragments.
	FlagsUnfragmented = FlagBeginFragment | FlagEndFragment
)

var byteOrder = binary.LittleEndian

// Frame is the smallest length-prefixed unit of the protocol.
type Frame struct {
	Content []byte
	Flags   uint16
}

func NewFrame(content []byte) Frame {
	return Frame{Content: content}
}

func NewFrameWithFlags(content []byte, flags uint16) Frame {
	return Frame{Content: content, Flags: flags}
}

var (
	// NullFrame encodes an absent nullable value.
	NullFrame = Frame{Content: []byte{}, Flags: FlagIsNull}
	// BeginFrame opens a nested data structure or a list.
	BeginFrame = Frame{Content: []byte{}, Flags: FlagBeginDataStructure}
	// EndFrame closes a nested data structure or a list.
	EndFrame = Frame{Content: []byte{}, Flags: FlagEndDataStructure}
)

// Size returns the encoded size of the frame, including the header.
func (f Frame) Size() int {
	return FrameHeaderSize + len(f.Content)
}

func (f Frame) HasFlag(flag uint16) bool {
	return f.Flags&flag == flag
}

func (f Frame) IsNull() bool {
	return f.HasFlag(FlagIsNull)
}

func (f Frame) IsBeginFrame() bool {
	return f.HasFlag(FlagBeginDataStructure)
}

func (f Frame) IsEndFrame() bool {
	return f.HasFlag(FlagEndDataStructure)
}

func (f Frame) IsFinal() bool {
	return f.HasFlag(FlagIsFinal)
}
