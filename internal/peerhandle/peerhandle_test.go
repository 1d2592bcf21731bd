package peerhandle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDispatcherDelivers(t *testing.T) {
	out := make(chan PeerMessage, 1)
	d := NewChannelDispatcher(out)

	msg := PieceFulfilled{Index: BlockIndex{PieceIndex: 2, BlockOffset: 0}, Bytes: []byte("xy")}
	require.NoError(t, d.Dispatch("peer-1", msg))

	got := <-out
	assert.Equal(t, "peer-1", got.Peer)
	fulfilled, ok := got.Message.(PieceFulfilled)
	require.True(t, ok)
	assert.Equal(t, []byte("xy"), fulfilled.Bytes)
}

func TestMessageTypesSatisfyInterfaces(t *testing.T) {
	var _ PeerToWriter = BufferWritten{}
	var _ PeerToWriter = PieceRequest{}
	var _ WriterToPeer = PieceFulfilled{}
}
