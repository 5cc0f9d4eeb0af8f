package binario

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
)

// Reader reads fixed-size values from a byte slice. The first out-of-bounds
// read sets a sticky error, and all further reads return zero values.
type Reader struct {
	buf       []byte
	offset    int
	byteOrder binary.ByteOrder
	err       error
}

// NewReader creates a reader starting at the given offset.
func NewReader(buf []byte, offset int, byteOrder binary.ByteOrder) *Reader {
	return &Reader{
		buf:       buf,
		offset:    offset,
		byteOrder: byteOrder,
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}

	if r.offset+n > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}

	b := r.buf[r.offset : r.offset+n]
	r.offset += n

	return b
}

func (r *Reader) ReadUint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}

	return 0
}

func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

func (r *Reader) ReadUint16() uint16 {
	if b := r.take(2); b != nil {
		return r.byteOrder.Uint16(b)
	}

	return 0
}

func (r *Reader) ReadInt32() int32 {
	if b := r.take(4); b != nil {
		return int32(r.byteOrder.Uint32(b))
	}

	return 0
}

func (r *Reader) ReadInt64() int64 {
	if b := r.take(8); b != nil {
		return int64(r.byteOrder.Uint64(b))
	}

	return 0
}

// ReadUUID reads a nullable UUID, returning uuid.Nil for null.
func (r *Reader) ReadUUID() uuid.UUID {
	isNull := r.ReadBool()
	msb := r.ReadInt64()
	lsb := r.ReadInt64()

	if isNull || r.err != nil {
		return uuid.Nil
	}

	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], uint64(msb))
	binary.BigEndian.PutUint64(u[8:16], uint64(lsb))

	return u
}

// Remaining reports whether there are unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}
