package protocol

import (
	"fmt"

	"github.com/maxpoletaev/gridlink/errs"
)

// DefaultMaxFrameSize bounds a single frame. Messages may be larger than
// this, as long as each of their frames fits.
const DefaultMaxFrameSize = 64 << 20

// Decoder incrementally extracts messages from a byte stream. Bytes are
// appended with Write as they come off the socket, and Next returns complete
// messages as soon as their last frame is available. A Decoder keeps the
// partially received frame and the frames of the message in progress between
// calls, so the stream may be split at any byte.
//
// A Decoder is not safe for concurrent use; it belongs to the reader of one
// connection.
type Decoder struct {
	buf          []byte
	start        int
	frames       []Frame
	maxFrameSize int
}

func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	return &Decoder{
		maxFrameSize: maxFrameSize,
	}
}

// Write appends received bytes to the decoder buffer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	// Reclaim the consumed prefix before growing the buffer.
	if d.start > 0 && len(d.buf)+len(p) > cap(d.buf) {
		n := copy(d.buf, d.buf[d.start:])
		d.buf = d.buf[:n]
		d.start = 0
	}

	d.buf = append(d.buf, p...)

	return len(p), nil
}

// Buffered returns the number of received bytes not yet consumed as frames.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.start
}

// Next returns the next complete message, or nil if more bytes are needed.
// A malformed frame header yields an error wrapping errs.ErrProtocol; the
// stream cannot be resynchronized after that.
func (d *Decoder) Next() (*Message, error) {
	for {
		avail := d.buf[d.start:]
		if len(avail) < FrameHeaderSize {
			d.compact()
			return nil, nil
		}

		length := int(byteOrder.Uint32(avail[0:4]))
		if length < FrameHeaderSize {
			return nil, errs.ErrProtocol.Wrap(fmt.Errorf("frame length %d is less than header size", length))
		}

		if length > d.maxFrameSize {
			return nil, errs.ErrProtocol.Wrap(fmt.Errorf("frame length %d exceeds limit %d", length, d.maxFrameSize))
		}

		if len(avail) < length {
			return nil, nil
		}

		flags := byteOrder.Uint16(avail[4:6])
		content := make([]byte, length-FrameHeaderSize)
		copy(content, avail[FrameHeaderSize:length])

		d.start += length
		d.frames = append(d.frames, Frame{Content: content, Flags: flags})

		if flags&FlagIsFinal != 0 {
			msg := &Message{Frames: d.frames}
			d.frames = nil

			return msg, nil
		}
	}
}

func (d *Decoder) compact() {
	if d.start == len(d.buf) {
		d.buf = d.buf[:0]
		d.start = 0
	}
}
