// Package buffer implements the bounded, insertion-ordered message store and
// the cursor-based navigator over it.
//
// Buffer and Navigator hold no concurrency primitives: all access happens
// under the owning Bar's lock, on one logical thread. They are pure state
// machines, which keeps every operation total over valid input — empty
// buffer is a modeled state (cursor -1), never a panic.
package buffer

import (
	"errors"

	"github.com/sneh-joshi/flashline/internal/types"
)

// MinCapacity is the floor for buffer capacity. Configured capacities below
// this are clamped up, never down.
const MinCapacity = 100

// ErrOutOfRange is returned by DeleteAt for an index outside [0, len-1].
// Callers recover locally (no-op or clamp); it is never a fault.
var ErrOutOfRange = errors.New("buffer: index out of range")

// Buffer is a bounded FIFO store of admitted entries. When admitting into a
// full buffer the oldest entry (index 0) is evicted first; eviction is an
// expected, reported event, not an error.
type Buffer struct {
	entries  []*types.Entry
	capacity int
}

// New returns an empty Buffer. capacity is floor-clamped to MinCapacity.
func New(capacity int) *Buffer {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Buffer{
		entries:  make([]*types.Entry, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the clamped capacity C.
func (b *Buffer) Capacity() int { return b.capacity }

// Len returns the number of buffered entries. Always ≤ Capacity.
func (b *Buffer) Len() int { return len(b.entries) }

// At returns the entry at index i, or false when i is out of range.
func (b *Buffer) At(i int) (*types.Entry, bool) {
	if i < 0 || i >= len(b.entries) {
		return nil, false
	}
	return b.entries[i], true
}

// Admit appends e, stamping its CreatedAt with nowMs. If the buffer is full
// the entry at index 0 is evicted first and returned so the caller can log
// it. Admit always succeeds; the returned index is the entry's position
// (always the new last index).
func (b *Buffer) Admit(e *types.Entry, nowMs int64) (index int, evicted *types.Entry) {
	if len(b.entries) == b.capacity {
		evicted = b.entries[0]
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	e.CreatedAt = nowMs
	b.entries = append(b.entries, e)
	return len(b.entries) - 1, evicted
}

// DeleteAt removes the entry at index i, shifting later entries down.
// Returns ErrOutOfRange when i is not in [0, len-1].
func (b *Buffer) DeleteAt(i int) error {
	if i < 0 || i >= len(b.entries) {
		return ErrOutOfRange
	}
	copy(b.entries[i:], b.entries[i+1:])
	b.entries[len(b.entries)-1] = nil
	b.entries = b.entries[:len(b.entries)-1]
	return nil
}

// ClearAll empties the buffer.
func (b *Buffer) ClearAll() {
	for i := range b.entries {
		b.entries[i] = nil
	}
	b.entries = b.entries[:0]
}

// Export returns a read-only snapshot: cloned entries in insertion order.
// Exporting the same buffer state twice yields identical snapshots.
func (b *Buffer) Export() []*types.Entry {
	out := make([]*types.Entry, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Clone()
	}
	return out
}
