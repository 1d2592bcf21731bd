// Package piecebuffer implements the shared piece buffer: the concurrency-
// safe handle the Writer Process drains whenever it receives a
// BufferWritten notification.
package piecebuffer

import "sync"

// Piece is one completed (index, bytes) pair waiting to be written to disk.
type Piece struct {
	Index uint32
	Data  []byte
}

// Buffer holds completed pieces produced by peer-serving tasks until the
// Writer Process drains them. Safe for concurrent use: many producers may
// call Add while the Writer Process calls Drain.
type Buffer struct {
	mu      sync.Mutex
	pending []Piece
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Add appends a completed piece, to be picked up by the next Drain.
func (b *Buffer) Add(index uint32, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, Piece{Index: index, Data: data})
}

// Drain atomically removes and returns every piece added since the last
// Drain. Returns nil if nothing is pending.
func (b *Buffer) Drain() []Piece {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

// Len reports how many pieces are currently pending, for progress reporting.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
