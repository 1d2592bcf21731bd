// Package peerhandle defines the message envelopes exchanged between
// peer-serving tasks and the Writer Process, and the Dispatcher used to
// deliver a reply back to the peer that asked for it.
package peerhandle

// BlockInfo names a block within a piece: pieceIndex, blockOffset and
// blockLength, all in bytes except pieceIndex.
type BlockInfo struct {
	PieceIndex  uint32
	BlockOffset uint32
	BlockLength uint32
}

// BlockIndex names a block's position without its length, used to tag a
// fulfilled reply.
type BlockIndex struct {
	PieceIndex  uint32
	BlockOffset uint32
}

// PeerToWriter is the sum type of messages the Writer Process accepts on
// its inbound channel.
type PeerToWriter interface {
	isPeerToWriter()
}

// BufferWritten notifies the Writer Process that the shared piece buffer
// has new completed pieces ready to be drained and written.
type BufferWritten struct{}

func (BufferWritten) isPeerToWriter() {}

// PieceRequest asks the Writer Process to read a block and send it back to
// Peer via a Dispatcher.
type PieceRequest struct {
	Peer  string
	Block BlockInfo
}

func (PieceRequest) isPeerToWriter() {}

// WriterToPeer is the sum type of messages the Writer Process sends back
// to a peer-serving task.
type WriterToPeer interface {
	isWriterToPeer()
}

// PieceFulfilled carries the bytes requested by an earlier PieceRequest.
type PieceFulfilled struct {
	Index BlockIndex
	Bytes []byte
}

func (PieceFulfilled) isWriterToPeer() {}

// Dispatcher delivers a WriterToPeer reply to the named peer. Implementations
// are expected to be non-blocking or to apply their own backpressure; the
// Writer Process does not retry a failed dispatch.
type Dispatcher interface {
	Dispatch(peer string, msg WriterToPeer) error
}

// ChannelDispatcher delivers replies over a single channel, tagging each
// with the destination peer. It is the simplest Dispatcher a test or a
// single-peer harness needs.
type ChannelDispatcher struct {
	out chan PeerMessage
}

// PeerMessage pairs a WriterToPeer reply with its destination peer, mirroring
// the teacher's convention of wrapping a payload with its originating or
// destination peer.
type PeerMessage struct {
	Peer    string
	Message WriterToPeer
}

// NewChannelDispatcher returns a ChannelDispatcher that writes to out.
func NewChannelDispatcher(out chan PeerMessage) *ChannelDispatcher {
	return &ChannelDispatcher{out: out}
}

// Dispatch sends msg on the underlying channel, blocking until the channel
// accepts it (immediately if a buffered channel has room).
func (d *ChannelDispatcher) Dispatch(peer string, msg WriterToPeer) error {
	d.out <- PeerMessage{Peer: peer, Message: msg}
	return nil
}
