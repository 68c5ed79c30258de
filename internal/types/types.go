// Package types contains the core domain types shared across all flashline
// internal packages. It deliberately has zero imports of other flashline
// packages so that the buffer, display, and transport layers can all import
// from it without creating import cycles.
package types

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Style is the presentation hint attached to a message. The engine never
// interprets colors beyond validation; renderers own how (and whether) a
// style is applied.
type Style struct {
	// Foreground and Background are color strings ("#rrggbb" or
	// "rgba(r,g,b,a)"). Empty means inherit the renderer's default.
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`

	// Bold requests a bold face from the renderer.
	Bold bool `json:"bold"`
}

// IsZero reports whether the style carries no hints at all.
func (s Style) IsZero() bool {
	return s.Foreground == "" && s.Background == "" && !s.Bold
}

// Entry is the canonical unit of data in flashline: one submitted status
// message. An Entry is created at submission, may wait in the wait queue,
// and becomes immutable once admitted into the buffer.
//
// Design rules:
//   - All timestamps are UTC milliseconds since Unix epoch.
//   - IDs are ULID strings: time-sortable and unique across the process.
//   - CreatedAt is stamped at admission time, not submission time, so that
//     buffered entries are strictly ordered by when they were admitted
//     (wait-queued entries are admitted later than they were submitted).
type Entry struct {
	// ID is a ULID uniquely identifying this entry. Assigned at submission.
	ID string `json:"id"`

	// Text is the display content.
	Text string `json:"text"`

	// TimeoutMs is the requested display duration in milliseconds.
	// Zero means "default short display": the entry is shown for a fixed
	// hold window and no duration is tracked in history.
	TimeoutMs int64 `json:"timeout_ms"`

	// Style holds the renderer hints supplied at submission.
	Style Style `json:"style"`

	// CreatedAt is the UTC millisecond at which the entry was admitted
	// into the buffer. Zero while the entry is still wait-queued.
	CreatedAt int64 `json:"created_at"`
}

// Clone returns a shallow copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// ─── Events ───────────────────────────────────────────────────────────────────

// EventKind identifies what a subscriber is being told about.
type EventKind uint8

const (
	// EventDisplay means the visible message changed, either because the
	// scheduler admitted a new entry or because the navigator moved.
	EventDisplay EventKind = iota
	// EventClear means nothing should be shown.
	EventClear
	// EventProgressTick carries the per-second countdown fraction for a
	// long timed message.
	EventProgressTick
	// EventIndexLabel carries the structured values behind the position
	// label (cursor / buffer length / wait-queue depth).
	EventIndexLabel
	// EventWaitQueueEmptied fires once each time the wait queue transitions
	// from non-empty to empty as a result of a drain.
	EventWaitQueueEmptied
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventDisplay:
		return "display"
	case EventClear:
		return "clear"
	case EventProgressTick:
		return "progress_tick"
	case EventIndexLabel:
		return "index_label"
	case EventWaitQueueEmptied:
		return "wait_queue_emptied"
	default:
		return "unknown"
	}
}

// IndexLabel is the structured position readout renderers format into the
// "0042/0100 [3]" style label. Cursor is 0-based; -1 means nothing is
// displayed and the label should render as dashes.
type IndexLabel struct {
	Cursor    int `json:"cursor"`
	Length    int `json:"length"`
	Capacity  int `json:"capacity"`
	WaitDepth int `json:"wait_depth"`
}

// Event is what Bar subscribers receive. Exactly one payload field is
// meaningful per kind; the rest are zero.
type Event struct {
	Kind EventKind `json:"kind"`

	// Entry is set for EventDisplay. It is a copy: subscribers may hold it
	// without synchronization.
	Entry *Entry `json:"entry,omitempty"`

	// Waiting is set for EventDisplay: true when the wait queue is
	// non-empty at display time, so renderers can paint the queued-messages
	// indicator.
	Waiting bool `json:"waiting,omitempty"`

	// Fraction is set for EventProgressTick: the share of the total
	// display duration consumed by this tick (1000 / timeout_ms).
	Fraction float64 `json:"fraction,omitempty"`

	// Label is set for EventIndexLabel.
	Label IndexLabel `json:"label,omitempty"`
}

// ─── Entry IDs ────────────────────────────────────────────────────────────────

// monoEntropy is a package-level monotone entropy source shared across all
// NewID calls. A single shared source keeps IDs lexicographically ordered
// even when generated within the same millisecond.
var (
	monoMu      sync.Mutex
	monoEntropy io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a fresh time-ordered ULID string for an entry.
func NewID() (string, error) {
	monoMu.Lock()
	defer monoMu.Unlock()
	ms := ulid.Timestamp(time.Now())
	id, err := ulid.New(ms, monoEntropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNewID is like NewID but panics on error. Use only in tests or init code.
func MustNewID() string {
	id, err := NewID()
	if err != nil {
		panic(fmt.Sprintf("types.MustNewID: %v", err))
	}
	return id
}
