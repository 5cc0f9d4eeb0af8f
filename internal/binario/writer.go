package binario

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// UUIDSize is the encoded size of a nullable UUID: a null marker followed by
// the most and least significant halves.
const UUIDSize = 1 + 8 + 8

// Writer appends fixed-size values to a byte slice.
type Writer struct {
	buf       []byte
	byteOrder binary.AppendByteOrder
}

// NewWriter creates a writer that appends to buf.
func NewWriter(buf []byte, byteOrder binary.AppendByteOrder) *Writer {
	return &Writer{
		buf:       buf,
		byteOrder: byteOrder,
	}
}

func (w *Writer) WriteUint8(value uint8) {
	w.buf = append(w.buf, value)
}

func (w *Writer) WriteBool(value bool) {
	if value {
		w.WriteUint8(1)
		return
	}

	w.WriteUint8(0)
}

func (w *Writer) WriteUint16(value uint16) {
	w.buf = w.byteOrder.AppendUint16(w.buf, value)
}

func (w *Writer) WriteInt32(value int32) {
	w.buf = w.byteOrder.AppendUint32(w.buf, uint32(value))
}

func (w *Writer) WriteInt64(value int64) {
	w.buf = w.byteOrder.AppendUint64(w.buf, uint64(value))
}

// WriteUUID writes a nullable UUID. uuid.Nil is written as null.
func (w *Writer) WriteUUID(value uuid.UUID) {
	if value == uuid.Nil {
		w.WriteBool(true)
		w.WriteInt64(0)
		w.WriteInt64(0)

		return
	}

	w.WriteBool(false)
	w.WriteInt64(int64(binary.BigEndian.Uint64(value[0:8])))
	w.WriteInt64(int64(binary.BigEndian.Uint64(value[8:16])))
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of written bytes.
func (w *Writer) Len() int {
	return len(w.buf)
}
