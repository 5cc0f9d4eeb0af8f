package protocol

import (
	"fmt"

	"github.com/maxpoletaev/gridlink/errs"
)

// FragmentAssembler joins fragmented messages. A large message is sent as a
// series of fragments; each fragment is a message whose first frame holds the
// fragment id, and whose first frame flags say whether it begins or ends the
// series. Unfragmented messages pass through untouched.
//
// An assembler belongs to the reader of one connection.
type FragmentAssembler struct {
	pending map[int64]*Message
}

func NewFragmentAssembler() *FragmentAssembler {
	return &FragmentAssembler{
		pending: make(map[int64]*Message),
	}
}

// Add consumes a decoded message and returns a complete message once one is
// available.
func (a *FragmentAssembler) Add(msg *Message) (*Message, bool, error) {
	if len(msg.Frames) == 0 {
		return nil, false, errs.ErrProtocol.Wrap(fmt.Errorf("empty message"))
	}

	head := msg.Frames[0]
	if head.HasFlag(FlagsUnfragmented) {
		return msg, true, nil
	}

	if len(head.Content) < FragmentationIDOffset+8 {
		return nil, false, errs.ErrProtocol.Wrap(fmt.Errorf("fragment header too short"))
	}

	id := int64(byteOrder.Uint64(head.Content[FragmentationIDOffset:]))
	body := msg.Frames[1:]

	switch {
	case head.HasFlag(FlagBeginFragment):
		a.pending[id] = &Message{Frames: append([]Frame(nil), body...)}
		return nil, false, nil

	case head.HasFlag(FlagEndFragment):
		assembled, ok := a.pending[id]
		if !ok {
			return nil, false, errs.ErrProtocol.Wrap(fmt.Errorf("end of unknown fragment %d", id))
		}

		delete(a.pending, id)
		a.appendFrames(assembled, body)

		return assembled, true, nil

	default:
		assembled, ok := a.pending[id]
		if !ok {
			return nil, false, errs.ErrProtocol.Wrap(fmt.Errorf("continuation of unknown fragment %d", id))
		}

		a.appendFrames(assembled, body)

		return nil, false, nil
	}
}

// Pending returns the number of incomplete fragmented messages.
func (a *FragmentAssembler) Pending() int {
	return len(a.pending)
}

func (a *FragmentAssembler) appendFrames(msg *Message, frames []Frame) {
	if n := len(msg.Frames); n > 0 {
		msg.Frames[n-1].Flags &^= FlagIsFinal
	}

	msg.Frames = append(msg.Frames, frames...)
}
