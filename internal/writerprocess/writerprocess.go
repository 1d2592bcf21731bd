// Package writerprocess implements the Writer Process: a long-lived task
// that dispatches BufferWritten and PieceRequest messages to the Writer and
// Reader respectively, replying to peers in the order requests arrive.
package writerprocess

import (
	"time"

	"github.com/alexkalderimis/haze/internal/bitfield"
	"github.com/alexkalderimis/haze/internal/config"
	"github.com/alexkalderimis/haze/internal/layout"
	"github.com/alexkalderimis/haze/internal/logger"
	"github.com/alexkalderimis/haze/internal/peerhandle"
	"github.com/alexkalderimis/haze/internal/piecebuffer"
	"github.com/alexkalderimis/haze/internal/piecereader"
	"github.com/alexkalderimis/haze/internal/piecewriter"
)

var log = logger.New("writerprocess")

// Process holds everything the Writer Process needs and drives its
// message loop from a single goroutine.
type Process struct {
	writer     *piecewriter.Writer
	reader     *piecereader.Reader
	buffer     *piecebuffer.Buffer
	dispatcher peerhandle.Dispatcher

	// written tracks which piece indices have been written at least once,
	// independent of whether their final file has since been merged. A
	// supervisor reads this through Progress to report how much of the
	// torrent is on disk.
	written *bitfield.Bitfield

	retryInterval time.Duration

	inbox chan peerhandle.PeerToWriter
	errC  chan error
}

// New returns a Process wired to fs/mapping for storage, buffer as the
// shared piece buffer, and dispatcher to deliver replies to peers. cfg
// bounds the Writer's per-batch write concurrency and sets how often a
// BufferWritten retry is synthesized to re-check merges that were blocked
// on a missing dependency.
func New(fs *layout.FileStructure, mapping layout.PieceMapping, buffer *piecebuffer.Buffer, dispatcher peerhandle.Dispatcher, cfg config.Config) *Process {
	return &Process{
		writer:        piecewriter.New(fs, cfg),
		reader:        piecereader.New(mapping),
		buffer:        buffer,
		dispatcher:    dispatcher,
		written:       bitfield.New(uint32(fs.PieceCount())),
		retryInterval: cfg.MergeRetryInterval,
		inbox:         make(chan peerhandle.PeerToWriter, 1),
		errC:          make(chan error, 1),
	}
}

// Inbox returns the channel callers send PeerToWriter messages on. Closing
// it stops the Process.
func (p *Process) Inbox() chan<- peerhandle.PeerToWriter {
	return p.inbox
}

// Errors returns the channel the Process reports fatal batch errors on. A
// send here means the current batch aborted; the process keeps running so
// outstanding merges can retry on a later batch, per the no-local-retry
// error policy.
func (p *Process) Errors() <-chan error {
	return p.errC
}

// Progress reports how many of the torrent's pieces have been written at
// least once, out of the total.
func (p *Process) Progress() (written, total uint32) {
	return p.written.Count(), p.written.Len()
}

// Run processes messages from Inbox until it is closed. Requests are
// answered strictly in the order they are received. If cfg.MergeRetryInterval
// is positive, a BufferWritten is synthesized on that interval so a merge
// that was skipped for a missing dep gets re-checked even with no new
// pieces arriving.
func (p *Process) Run() {
	var tick <-chan time.Time
	if p.retryInterval > 0 {
		ticker := time.NewTicker(p.retryInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case msg, ok := <-p.inbox:
			if !ok {
				log.Debugln("inbox closed, exiting")
				return
			}
			p.dispatch(msg)
		case <-tick:
			log.Debugln("merge retry tick")
			p.handleBufferWritten()
		}
	}
}

func (p *Process) dispatch(msg peerhandle.PeerToWriter) {
	switch m := msg.(type) {
	case peerhandle.BufferWritten:
		p.handleBufferWritten()
	case peerhandle.PieceRequest:
		p.handlePieceRequest(m)
	default:
		log.Warningln("unknown message type", m)
	}
}

func (p *Process) handleBufferWritten() {
	pieces := p.buffer.Drain()
	batch := make([]piecewriter.Piece, len(pieces))
	for i, pc := range pieces {
		batch[i] = piecewriter.Piece{Index: pc.Index, Data: pc.Data}
	}
	if err := p.writer.WriteBatch(batch); err != nil {
		p.reportError(err)
		return
	}
	for _, pc := range pieces {
		p.written.Set(pc.Index)
	}
}

func (p *Process) handlePieceRequest(req peerhandle.PieceRequest) {
	b := req.Block
	data, err := p.reader.ReadBlock(b.PieceIndex, int64(b.BlockOffset), int64(b.BlockLength))
	if err != nil {
		log.Errorln("piece request", b.PieceIndex, "dropped:", err)
		return
	}
	reply := peerhandle.PieceFulfilled{
		Index: peerhandle.BlockIndex{PieceIndex: b.PieceIndex, BlockOffset: b.BlockOffset},
		Bytes: data,
	}
	if err := p.dispatcher.Dispatch(req.Peer, reply); err != nil {
		log.Errorln("dispatch to", req.Peer, "failed:", err)
	}
}

func (p *Process) reportError(err error) {
	select {
	case p.errC <- err:
	default:
		log.Errorln("batch error dropped, errC full:", err)
	}
}
