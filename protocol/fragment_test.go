package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

func TestFragmentAssembler_Unfragmented(t *testing.T) {
	a := protocol.NewFragmentAssembler()
	msg := newTestMessage(1)

	got, ok, err := a.Add(msg)
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, msg, got)
}

func TestFragmentAssembler_Reassemble(t *testing.T) {
	msg := newTestMessage(9)
	fragments := protocol.Fragment(msg, 64, 1001)
	require.Greater(t, len(fragments), 1)

	var data []byte
	for _, f := range fragments {
		data = protocol.AppendMessage(data, f)
	}

	dec := protocol.NewDecoder(0)
	_, _ = dec.Write(data)

	a := protocol.NewFragmentAssembler()

	var assembled *protocol.Message

	for {
		m, err := dec.Next()
		require.NoError(t, err)

		if m == nil {
			break
		}

		require.True(t, m.IsFragmented())

		got, ok, err := a.Add(m)
		require.NoError(t, err)

		if ok {
			require.Nil(t, assembled)
			assembled = got
		}
	}

	require.NotNil(t, assembled)
	require.Zero(t, a.Pending())
	require.Len(t, assembled.Frames, len(msg.Frames))
	require.Equal(t, msg.CorrelationID(), assembled.CorrelationID())

	for i := range msg.Frames {
		require.Equal(t, msg.Frames[i].Content, assembled.Frames[i].Content)
	}
}

func TestFragmentAssembler_UnknownFragment(t *testing.T) {
	fragments := protocol.Fragment(newTestMessage(1), 64, 5)
	require.Greater(t, len(fragments), 1)

	a := protocol.NewFragmentAssembler()

	_, _, err := a.Add(fragments[len(fragments)-1])
	require.ErrorIs(t, err, errs.ErrProtocol)
}
