// Package bar assembles the flashline engine and is its single entry point.
//
// All application code (HTTP handlers, WebSocket push, the terminal UI, the
// CLI) talks to the Bar — never directly to the buffer, navigator, or display
// scheduler. The Bar owns the one mutex that serializes every operation:
// inbound submissions and commands take it directly, and the display
// scheduler's timer callbacks re-enter through it, so the whole engine
// behaves as a single logical thread.
//
// Data flow:
//
//	Submitter → Bar.Submit → display.Scheduler ─┬─ show now → buffer.Admit → events
//	                                            └─ wait queue → (timer drain) → buffer.Admit → events
//	Commands  → Bar.Prev/Next/… → buffer.Navigator → events
//	Renderers ← Bar.Subscribe (fan-out of display/clear/tick/label events)
package bar

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sneh-joshi/flashline/internal/buffer"
	"github.com/sneh-joshi/flashline/internal/display"
	"github.com/sneh-joshi/flashline/internal/export"
	"github.com/sneh-joshi/flashline/internal/metrics"
	"github.com/sneh-joshi/flashline/internal/style"
	"github.com/sneh-joshi/flashline/internal/types"
)

// DefaultSubscriberBuffer is the event channel capacity handed to subscribers
// that pass a non-positive buffer size.
const DefaultSubscriberBuffer = 64

// ─── Request / Response types ─────────────────────────────────────────────────

// SubmitRequest carries everything needed to submit one status message.
type SubmitRequest struct {
	Text      string
	TimeoutMs int64 // 0 = default short display; negative values are treated as 0
	Style     types.Style
}

// SubmitResult is returned after a successful Submit.
type SubmitResult struct {
	ID     string
	Queued bool // true when the entry joined the wait queue instead of displaying
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	Length    int          `json:"length"`
	Capacity  int          `json:"capacity"`
	Cursor    int          `json:"cursor"`
	WaitDepth int          `json:"wait_depth"`
	State     string       `json:"state"`
	Visible   *types.Entry `json:"visible,omitempty"`
}

// ─── Option / functional options ──────────────────────────────────────────────

// Option is a functional option for the Bar.
type Option func(*Bar)

// WithLogger attaches a logger used for transition, eviction, drain, and
// export logging. Defaults to slog.Default(). Logging is observational only:
// no engine behavior depends on it.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bar) { b.logger = l }
}

// WithMetrics attaches a metrics.Registry so that every submission, display,
// eviction, and export increments the relevant counter.
func WithMetrics(reg *metrics.Registry) Option {
	return func(b *Bar) { b.metrics = reg }
}

// WithPresets replaces the default preset registry (builtins only) with one
// the caller has loaded extra presets into.
func WithPresets(reg *style.Registry) Option {
	return func(b *Bar) { b.presets = reg }
}

// ─── Config ───────────────────────────────────────────────────────────────────

// Config holds the engine knobs. Zero values fall back to built-in defaults;
// capacity is floor-clamped by the buffer itself.
type Config struct {
	// Capacity is the history buffer size; values below the buffer floor are
	// clamped up.
	Capacity int
	// PageSize is the jump width for page navigation; values below 1 fall
	// back to the navigator default.
	PageSize int
	// ExportDir is where export files land. Empty disables export.
	ExportDir string
	// StrictDeleteAll makes DeleteAll drop the wait queue as well, so the
	// in-flight timer's drain finds nothing and simply clears.
	StrictDeleteAll bool
	// Timing overrides the display scheduler's timer constants. Zero values
	// use production defaults; tests shrink them.
	Timing display.Config
}

// ─── Bar ──────────────────────────────────────────────────────────────────────

// Bar wires the buffer, navigator, display scheduler, preset registry, and
// exporter into a single façade.
//
// All methods are safe for concurrent use.
type Bar struct {
	mu sync.Mutex

	buf   *buffer.Buffer
	nav   *buffer.Navigator
	sched *display.Scheduler

	exporter *export.Exporter
	presets  *style.Registry

	// visible is what a renderer is currently showing: set by scheduler
	// admission and by navigator browsing, nil after a clear. Distinct from
	// the scheduler's own displayed slot, which only tracks timer-managed
	// entries.
	visible *types.Entry

	strictDeleteAll bool

	logger  *slog.Logger
	metrics *metrics.Registry

	subs    map[int]chan types.Event
	nextSub int
	closed  bool
}

// New creates a Bar. It never fails: every config value is clamped to a
// usable range.
func New(cfg Config, opts ...Option) *Bar {
	b := &Bar{
		buf:             buffer.New(cfg.Capacity),
		nav:             buffer.NewNavigator(cfg.PageSize),
		exporter:        export.New(cfg.ExportDir),
		presets:         style.NewRegistry(),
		strictDeleteAll: cfg.StrictDeleteAll,
		logger:          slog.Default(),
		metrics:         &metrics.Registry{},
		subs:            make(map[int]chan types.Event),
	}
	for _, o := range opts {
		o(b)
	}

	hooks := display.Hooks{
		Display: b.onSchedulerDisplay,
		Clear:   b.onSchedulerClear,
		Tick:    b.onSchedulerTick,
		Emptied: b.onWaitQueueEmptied,
	}
	b.sched = display.New(cfg.Timing, hooks, b.locked)
	return b
}

// locked is the scheduler's serializer: timer and ticker callbacks run their
// work through it so they never interleave with caller operations.
func (b *Bar) locked(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// SetLogger replaces the bar's logger. The terminal UI uses this to reroute
// log records into its log pane once its program is running.
func (b *Bar) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = l
}

// Close stops the display scheduler and closes all subscriber channels.
// In-flight timers are stopped; no further events are delivered.
func (b *Bar) Close() {
	b.sched.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// ─── Subscriptions ────────────────────────────────────────────────────────────

// Subscribe registers an event channel with the given buffer size (values
// below 1 use DefaultSubscriberBuffer) and returns it with a cancel func.
// Events are display hints, not durable data: when a subscriber falls behind
// and its channel fills up, new events for it are dropped, counted, and
// logged — never blocked on.
func (b *Bar) Subscribe(size int) (<-chan types.Event, func()) {
	if size < 1 {
		size = DefaultSubscriberBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.Event, size)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish fans an event out to every subscriber. Must run under b.mu.
func (b *Bar) publish(ev types.Event) {
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.metrics.EventsDropped.Add(1)
			b.logger.Warn("event dropped on full subscriber channel",
				"subscriber", id, "kind", ev.Kind.String())
		}
	}
}

// publishIndexLabel emits the structured position readout. Must run under b.mu.
func (b *Bar) publishIndexLabel() {
	b.publish(types.Event{Kind: types.EventIndexLabel, Label: b.indexLabelLocked()})
}

// indexLabelLocked builds the label for the current state. Cursor -1 tells
// renderers to show the dashed "nothing displayed" form.
func (b *Bar) indexLabelLocked() types.IndexLabel {
	cursor := -1
	if b.visible != nil {
		cursor = b.nav.Cursor()
	}
	return types.IndexLabel{
		Cursor:    cursor,
		Length:    b.buf.Len(),
		Capacity:  b.buf.Capacity(),
		WaitDepth: b.sched.QueueDepth(),
	}
}

// updateGauges refreshes the live length/depth gauges. Must run under b.mu.
func (b *Bar) updateGauges() {
	b.metrics.BufferLength.Store(int64(b.buf.Len()))
	b.metrics.WaitDepth.Store(int64(b.sched.QueueDepth()))
}

// ─── Scheduler hooks ──────────────────────────────────────────────────────────
//
// All four hooks run with b.mu already held: synchronously under Submit, or
// through b.locked when a timer fires. They must not take the lock again.

// onSchedulerDisplay admits e into the history buffer and makes it visible.
// The cursor always lands on the newest index.
func (b *Bar) onSchedulerDisplay(e *types.Entry, waiting bool) {
	idx, evicted := b.buf.Admit(e, time.Now().UnixMilli())
	if evicted != nil {
		b.metrics.Evicted.Add(1)
		b.logger.Warn("buffer full, evicted oldest entry",
			"evicted_id", evicted.ID, "admitted_id", e.ID, "capacity", b.buf.Capacity())
	}
	b.nav.SetCursor(idx)
	b.visible = e

	b.metrics.Displayed.Add(1)
	b.updateGauges()
	b.publish(types.Event{Kind: types.EventDisplay, Entry: e.Clone(), Waiting: waiting})
	b.publishIndexLabel()
	b.logger.Debug("display",
		"id", e.ID, "index", idx, "timeout_ms", e.TimeoutMs, "waiting", waiting)
}

// onSchedulerClear releases the display when a timer expires with nothing
// left to show. A display already cleared by DeleteAll stays cleared without
// a second event.
func (b *Bar) onSchedulerClear() {
	if b.visible == nil {
		return
	}
	b.visible = nil
	b.updateGauges()
	b.publish(types.Event{Kind: types.EventClear})
	b.publishIndexLabel()
	b.logger.Debug("display cleared")
}

func (b *Bar) onSchedulerTick(fraction float64) {
	b.publish(types.Event{Kind: types.EventProgressTick, Fraction: fraction})
}

func (b *Bar) onWaitQueueEmptied() {
	b.metrics.Emptied.Add(1)
	b.updateGauges()
	b.publish(types.Event{Kind: types.EventWaitQueueEmptied})
	b.logger.Debug("wait queue emptied")
}

// ─── Submission ───────────────────────────────────────────────────────────────

// Submit routes one message through the display scheduler: shown immediately
// when the display slot is free, queued behind the active message otherwise.
// The style is validated before anything is mutated.
func (b *Bar) Submit(req SubmitRequest) (*SubmitResult, error) {
	if err := style.Validate(req.Style); err != nil {
		return nil, err
	}
	if req.TimeoutMs < 0 {
		req.TimeoutMs = 0
	}

	id, err := types.NewID()
	if err != nil {
		return nil, err
	}
	e := &types.Entry{
		ID:        id,
		Text:      req.Text,
		TimeoutMs: req.TimeoutMs,
		Style:     req.Style,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	queued := b.sched.Submit(e)
	b.metrics.Submitted.Add(1)
	if queued {
		b.metrics.Queued.Add(1)
		b.updateGauges()
		b.publishIndexLabel()
		b.logger.Debug("queued behind active display",
			"id", id, "depth", b.sched.QueueDepth())
	}
	return &SubmitResult{ID: id, Queued: queued}, nil
}

// SubmitPreset is Submit with the style looked up from a named preset.
// Returns style.ErrNotFound when no such preset is registered.
func (b *Bar) SubmitPreset(name, text string, timeoutMs int64) (*SubmitResult, error) {
	p, err := b.presets.Get(name)
	if err != nil {
		return nil, err
	}
	b.metrics.PresetUsed.Inc(name)
	return b.Submit(SubmitRequest{Text: text, TimeoutMs: timeoutMs, Style: p.Style})
}

// ─── Navigation ───────────────────────────────────────────────────────────────

// Prev moves one entry back through history. When nothing is displayed the
// cursor already points at the newest entry, so the step is suppressed and
// the current position is re-displayed instead — otherwise the first key
// press after a clear would skip the newest entry.
func (b *Bar) Prev() {
	b.mu.Lock()
	defer b.mu.Unlock()
	delta := 0
	if b.visible != nil {
		delta = -1
	}
	b.moveByLocked(delta)
}

// Next moves one entry forward through history, wrapping to the oldest from
// the newest.
func (b *Bar) Next() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moveByLocked(1)
}

// PageUp jumps a page back: wrapping from the exact top, clamping when less
// than a page from it.
func (b *Bar) PageUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moveByLocked(-b.nav.PageSize())
}

// PageDown jumps a page forward, mirroring PageUp.
func (b *Bar) PageDown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moveByLocked(b.nav.PageSize())
}

// Home displays the oldest buffered entry.
func (b *Bar) Home() {
	b.mu.Lock()
	defer b.mu.Unlock()
	cursor, refresh := b.nav.Home(b.buf.Len())
	if refresh {
		b.displayAtLocked(cursor)
	}
}

// End displays the newest buffered entry.
func (b *Bar) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	cursor, refresh := b.nav.End(b.buf.Len())
	if refresh {
		b.displayAtLocked(cursor)
	}
}

// moveByLocked resolves a cursor move and re-displays. Must run under b.mu.
// Browsing never touches the scheduler: a running timer keeps running and
// will replace or clear whatever the user navigated to when it fires.
func (b *Bar) moveByLocked(delta int) {
	cursor, refresh := b.nav.MoveBy(delta, b.buf.Len())
	if !refresh {
		return
	}
	b.displayAtLocked(cursor)
}

// displayAtLocked makes the entry at cursor visible. Must run under b.mu.
func (b *Bar) displayAtLocked(cursor int) {
	e, ok := b.buf.At(cursor)
	if !ok {
		return
	}
	b.visible = e
	b.metrics.Navigations.Add(1)
	b.publish(types.Event{
		Kind:    types.EventDisplay,
		Entry:   e.Clone(),
		Waiting: b.sched.QueueDepth() > 0,
	})
	b.publishIndexLabel()
	b.logger.Debug("navigate", "cursor", cursor, "id", e.ID)
}

// ─── Deletion ─────────────────────────────────────────────────────────────────

// DeleteCurrent removes the entry under the cursor from the history buffer
// and re-resolves the cursor in place. An invalid cursor (nothing buffered,
// nothing pointed at) is a no-op, never a fault. Reports whether an entry
// was removed.
//
// The wait queue and any running timer are untouched: deletion changes
// history, not the display schedule.
func (b *Bar) DeleteCurrent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cursor := b.nav.Cursor()
	if err := b.buf.DeleteAt(cursor); err != nil {
		b.logger.Debug("delete-current ignored", "cursor", cursor)
		return false
	}
	b.metrics.Deleted.Add(1)
	b.logger.Debug("deleted entry", "cursor", cursor, "remaining", b.buf.Len())

	b.nav.Revalidate(b.buf.Len())
	if b.buf.Len() == 0 {
		if b.visible != nil {
			b.visible = nil
			b.publish(types.Event{Kind: types.EventClear})
			b.publishIndexLabel()
		}
	} else {
		b.moveByLocked(0)
	}
	b.updateGauges()
	return true
}

// DeleteAll clears the history buffer, resets the cursor, and blanks the
// display, returning the number of entries removed. By default the wait
// queue and any in-flight timer are left alone — the timer will fire and
// drain whatever is still waiting. With StrictDeleteAll the wait queue is
// dropped too, so that drain finds nothing and the expiry is a plain clear.
func (b *Bar) DeleteAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.buf.Len()
	b.buf.ClearAll()
	b.nav.Reset()
	if b.strictDeleteAll {
		b.sched.ClearWaiting()
	}
	if b.visible != nil {
		b.visible = nil
		b.publish(types.Event{Kind: types.EventClear})
		b.publishIndexLabel()
	}
	b.metrics.DeleteAll.Add(1)
	b.updateGauges()
	b.logger.Info("buffer cleared", "deleted", n, "strict", b.strictDeleteAll)
	return n
}

// ─── Export ───────────────────────────────────────────────────────────────────

// Export writes the buffer snapshot to a timestamped file. An empty dir uses
// the configured export directory; export.ErrDisabled is returned when
// neither is set. The snapshot is taken under the engine lock, the file is
// written outside it, so a slow disk never stalls submissions.
// Returns the written path and the number of exported entries.
func (b *Bar) Export(dir string) (string, int, error) {
	b.mu.Lock()
	snap := b.buf.Export()
	b.mu.Unlock()

	x := b.exporter
	if dir != "" {
		x = export.New(dir)
	}
	path, err := x.Export(snap)
	if err != nil {
		b.metrics.ExportFailures.Add(1)
		b.logger.Warn("export failed", "err", err)
		return "", 0, err
	}
	b.metrics.Exports.Add(1)
	b.logger.Info("buffer exported", "file", path, "entries", len(snap))
	return path, len(snap), nil
}

// ExportEnabled reports whether a default export directory is configured.
func (b *Bar) ExportEnabled() bool { return b.exporter.Enabled() }

// ─── Introspection ────────────────────────────────────────────────────────────

// Snapshot returns a copy of the buffered entries in insertion order.
func (b *Bar) Snapshot() []*types.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Export()
}

// Stats returns a point-in-time snapshot of engine state.
func (b *Bar) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Stats{
		Length:    b.buf.Len(),
		Capacity:  b.buf.Capacity(),
		Cursor:    b.nav.Cursor(),
		WaitDepth: b.sched.QueueDepth(),
		State:     b.sched.State().String(),
	}
	if b.visible != nil {
		s.Visible = b.visible.Clone()
	}
	return s
}

// Current returns what a renderer attaching mid-session should draw: the
// visible entry (nil means a cleared bar) and the index label for it.
func (b *Bar) Current() (*types.Entry, types.IndexLabel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	label := b.indexLabelLocked()
	if b.visible == nil {
		return nil, label
	}
	return b.visible.Clone(), label
}

// Presets exposes the preset registry for transports and renderers.
func (b *Bar) Presets() *style.Registry { return b.presets }
