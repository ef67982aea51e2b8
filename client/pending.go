package client

import "github.com/ashgrove/voxelkeep/internal/movement"

// PendingInput is one input the client has sent but not yet seen
// acknowledged in a snapshot (spec.md §4.H step 3).
type PendingInput struct {
	Seq   uint32
	Input movement.Input
}

// pendingBuffer is a FIFO of PendingInput ordered by ascending Seq, trimmed
// from the front as acks arrive.
type pendingBuffer struct {
	items []PendingInput
}

func newPendingBuffer() *pendingBuffer {
	return &pendingBuffer{}
}

// Push appends an input the client just sent.
func (b *pendingBuffer) Push(p PendingInput) {
	b.items = append(b.items, p)
}

// DropAcked removes every entry with Seq <= lastAck, per spec.md §4.H step 3.
func (b *pendingBuffer) DropAcked(lastAck uint32) {
	i := 0
	for i < len(b.items) && b.items[i].Seq <= lastAck {
		i++
	}
	b.items = append(b.items[:0:0], b.items[i:]...)
}

// All returns the remaining pending inputs in seq order, for replay.
func (b *pendingBuffer) All() []PendingInput {
	return b.items
}
