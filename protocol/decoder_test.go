package protocol_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

func newTestMessage(correlationID int64) *protocol.Message {
	msg := protocol.NewMessage(protocol.NewFrame(make([]byte, protocol.RequestInitialFrameSize)))
	msg.SetType(0x010203)
	msg.SetCorrelationID(correlationID)
	msg.SetPartitionID(42)

	protocol.EncodeString(msg, "hello")
	msg.AddFrame(protocol.NewFrame([]byte{}))
	protocol.EncodeBytes(msg, bytes.Repeat([]byte{0xAB}, 300))

	return msg
}

func requireSameMessage(t *testing.T, expected, actual *protocol.Message) {
	t.Helper()

	require.Equal(t, expected.Type(), actual.Type())
	require.Equal(t, expected.CorrelationID(), actual.CorrelationID())
	require.Equal(t, expected.PartitionID(), actual.PartitionID())
	require.Len(t, actual.Frames, len(expected.Frames))

	for i := range expected.Frames {
		require.Equal(t, expected.Frames[i].Content, actual.Frames[i].Content, "frame %d", i)
	}

	require.True(t, actual.Frames[len(actual.Frames)-1].IsFinal())
}

func TestDecoder_SingleWrite(t *testing.T) {
	msg := newTestMessage(1)
	data := protocol.AppendMessage(nil, msg)
	require.Equal(t, msg.Size(), len(data))

	dec := protocol.NewDecoder(0)
	_, _ = dec.Write(data)

	got, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, got)
	requireSameMessage(t, msg, got)

	got, err = dec.Next()
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, dec.Buffered())
}

func TestDecoder_ArbitrarySplits(t *testing.T) {
	msg := newTestMessage(7)
	data := protocol.AppendMessage(nil, msg)

	for chunk := 1; chunk <= len(data); chunk++ {
		dec := protocol.NewDecoder(0)

		var decoded []*protocol.Message

		for start := 0; start < len(data); start += chunk {
			end := start + chunk
			if end > len(data) {
				end = len(data)
			}

			_, _ = dec.Write(data[start:end])

			for {
				got, err := dec.Next()
				require.NoError(t, err)

				if got == nil {
					break
				}

				decoded = append(decoded, got)
			}
		}

		require.Len(t, decoded, 1, "chunk size %d", chunk)
		requireSameMessage(t, msg, decoded[0])
	}
}

func TestDecoder_ManyMessagesInOneRead(t *testing.T) {
	var data []byte
	for i := int64(1); i <= 5; i++ {
		data = protocol.AppendMessage(data, newTestMessage(i))
	}

	dec := protocol.NewDecoder(0)
	_, _ = dec.Write(data)

	for i := int64(1); i <= 5; i++ {
		got, err := dec.Next()
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, i, got.CorrelationID())
	}

	got, err := dec.Next()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDecoder_ZeroLengthFrame(t *testing.T) {
	msg := protocol.NewMessage(protocol.NewFrame(make([]byte, protocol.RequestInitialFrameSize)))
	msg.AddFrame(protocol.NewFrame(nil))

	data := protocol.AppendMessage(nil, msg)
	require.Equal(t, protocol.RequestInitialFrameSize+2*protocol.FrameHeaderSize, len(data))

	dec := protocol.NewDecoder(0)
	_, _ = dec.Write(data)

	got, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Frames, 2)
	require.Empty(t, got.Frames[1].Content)
	require.True(t, got.Frames[1].IsFinal())
}

func TestDecoder_ShortLength(t *testing.T) {
	header := make([]byte, protocol.FrameHeaderSize)
	binary.LittleEndian.PutUint32(header, 3)

	dec := protocol.NewDecoder(0)
	_, _ = dec.Write(header)

	_, err := dec.Next()
	require.ErrorIs(t, err, errs.ErrProtocol)
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestDecoder_FrameTooLarge(t *testing.T) {
	header := make([]byte, protocol.FrameHeaderSize)
	binary.LittleEndian.PutUint32(header, 1025)

	dec := protocol.NewDecoder(1024)
	_, _ = dec.Write(header)

	_, err := dec.Next()
	require.ErrorIs(t, err, errs.ErrProtocol)
}

func TestEncoder_Resumable(t *testing.T) {
	msg := newTestMessage(3)
	expected := protocol.AppendMessage(nil, msg)

	for size := 1; size <= len(expected); size++ {
		var (
			enc protocol.Encoder
			out []byte
		)

		buf := make([]byte, size)
		enc.Reset(msg)

		for !enc.Done() {
			n := enc.Encode(buf)
			require.Positive(t, n)
			out = append(out, buf[:n]...)
		}

		require.Equal(t, expected, out, "buffer size %d", size)
	}
}

func TestMessage_Copy(t *testing.T) {
	msg := newTestMessage(1)
	cp := msg.Copy()
	cp.SetCorrelationID(2)

	require.Equal(t, int64(1), msg.CorrelationID())
	require.Equal(t, int64(2), cp.CorrelationID())
	require.Equal(t, msg.Frames[1].Content, cp.Frames[1].Content)
}
