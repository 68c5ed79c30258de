package display

import (
	"container/list"

	"github.com/sneh-joshi/flashline/internal/types"
)

// WaitQueue holds submissions that arrived while another message owned the
// display. FIFO order, unbounded: display contention never drops a message.
// The bounded history buffer enforces its limit at admission time, which for
// a waiting entry happens only when it is popped for display.
type WaitQueue struct {
	l *list.List // elements are *types.Entry
}

// NewWaitQueue returns an empty queue.
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{l: list.New()}
}

// Push appends an entry at the back.
func (q *WaitQueue) Push(e *types.Entry) {
	q.l.PushBack(e)
}

// Pop removes and returns the oldest waiting entry, or nil when empty.
func (q *WaitQueue) Pop() *types.Entry {
	front := q.l.Front()
	if front == nil {
		return nil
	}
	q.l.Remove(front)
	return front.Value.(*types.Entry)
}

// Len returns the number of waiting entries.
func (q *WaitQueue) Len() int {
	return q.l.Len()
}

// Clear drops every waiting entry without admitting them anywhere.
func (q *WaitQueue) Clear() {
	q.l.Init()
}
