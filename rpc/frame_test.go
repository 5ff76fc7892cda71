package unitconvrpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameBufferWholeMessages(t *testing.T) {
	var fb FrameBuffer
	data := append(Frame([]byte("one")), Frame([]byte("two"))...)
	msgs := fb.Feed(data)
	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, msgs)
}

func TestFrameBufferPartialFeed(t *testing.T) {
	var fb FrameBuffer
	framed := Frame([]byte("payload"))

	msgs := fb.Feed(framed[:5])
	require.Empty(t, msgs)

	msgs = fb.Feed(framed[5:])
	require.Equal(t, [][]byte{[]byte("payload")}, msgs)
}

func TestPacketBufferDecodesBackToBack(t *testing.T) {
	a := &Packet{UUID: []byte{1}, Body: map[string][]byte{"function": []byte("GetUnits")}}
	b := &Packet{UUID: []byte{2}, Code: CodeNotFound}

	rawA, err := a.Marshal()
	require.NoError(t, err)
	rawB, err := b.Marshal()
	require.NoError(t, err)

	var pb PacketBuffer
	pkts, err := pb.Feed(append(rawA, rawB...))
	require.NoError(t, err)
	require.Len(t, pkts, 2)
	require.Equal(t, []byte{1}, pkts[0].UUID)
	require.Equal(t, CodeNotFound, pkts[1].Code)
}
