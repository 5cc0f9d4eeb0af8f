package protocol

// Encoder writes a message into destination buffers of any size. When the
// buffer fills up before the whole message is written, the next call to
// Encode continues from the exact byte where the previous one stopped.
type Encoder struct {
	msg    *Message
	frame  int
	offset int
	header [FrameHeaderSize]byte
}

// Reset starts encoding a new message.
func (e *Encoder) Reset(msg *Message) {
	e.msg = msg
	e.frame = 0
	e.offset = 0
}

// Done reports whether the current message has been fully written.
func (e *Encoder) Done() bool {
	return e.msg == nil || e.frame >= len(e.msg.Frames)
}

// Encode writes as many bytes of the current message into dst as fit and
// returns the number of bytes written. The last frame is always written with
// FlagIsFinal.
func (e *Encoder) Encode(dst []byte) int {
	n := 0

	for !e.Done() && n < len(dst) {
		f := e.msg.Frames[e.frame]

		if e.offset < FrameHeaderSize {
			flags := f.Flags
			if e.frame == len(e.msg.Frames)-1 {
				flags |= FlagIsFinal
			}

			byteOrder.PutUint32(e.header[0:4], uint32(f.Size()))
			byteOrder.PutUint16(e.header[4:6], flags)

			c := copy(dst[n:], e.header[e.offset:])
			n += c
			e.offset += c

			if e.offset < FrameHeaderSize {
				break
			}
		}

		c := copy(dst[n:], f.Content[e.offset-FrameHeaderSize:])
		n += c
		e.offset += c

		if e.offset == f.Size() {
			e.frame++
			e.offset = 0
		}
	}

	return n
}

// AppendMessage appends the complete encoding of msg to dst.
func AppendMessage(dst []byte, msg *Message) []byte {
	var enc Encoder

	enc.Reset(msg)

	start := len(dst)
	size := msg.Size()

	if cap(dst)-start < size {
		grown := make([]byte, start, start+size)
		copy(grown, dst)
		dst = grown
	}

	dst = dst[:start+size]
	enc.Encode(dst[start:])

	return dst
}
