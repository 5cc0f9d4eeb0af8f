package binario

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	id := uuid.New()

	w := NewWriter(nil, binary.LittleEndian)
	w.WriteUint8(7)
	w.WriteBool(true)
	w.WriteUint16(0xBEEF)
	w.WriteInt32(-42)
	w.WriteInt64(1 << 40)
	w.WriteUUID(id)
	w.WriteUUID(uuid.Nil)

	require.Equal(t, 1+1+2+4+8+2*UUIDSize, w.Len())

	r := NewReader(w.Bytes(), 0, binary.LittleEndian)
	require.Equal(t, uint8(7), r.ReadUint8())
	require.True(t, r.ReadBool())
	require.Equal(t, uint16(0xBEEF), r.ReadUint16())
	require.Equal(t, int32(-42), r.ReadInt32())
	require.Equal(t, int64(1<<40), r.ReadInt64())
	require.Equal(t, id, r.ReadUUID())
	require.Equal(t, uuid.Nil, r.ReadUUID())
	require.NoError(t, r.Err())
	require.Equal(t, 0, r.Remaining())
}

func TestReader_ShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2}, 0, binary.LittleEndian)

	require.Equal(t, int32(0), r.ReadInt32())
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)

	// The error is sticky.
	require.Equal(t, uint8(0), r.ReadUint8())
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestUUID_LittleEndianHalves(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0001-0000-000000000002")

	w := NewWriter(nil, binary.LittleEndian)
	w.WriteUUID(id)

	b := w.Bytes()
	require.Equal(t, byte(0), b[0])
	require.Equal(t, uint64(1), binary.LittleEndian.Uint64(b[1:9]))
	require.Equal(t, uint64(2), binary.LittleEndian.Uint64(b[9:17]))
}
