// Package display schedules messages onto the single display slot of a bar.
//
// One message owns the display at a time. Submissions that arrive while the
// slot is taken join a FIFO wait queue and are shown in order as timers
// expire. Timers always run to completion: there is no cancel path, so the
// lifecycle of every displayed message is fully determined the moment it is
// shown.
//
// Display rules, by the entry's TimeoutMs:
//
//   - 0:        the entry holds the display for the fixed hold duration.
//   - ≤ 2000:   a one-shot expiry timer, no progress reporting.
//   - > 2000:   a one-shot expiry timer plus a once-per-second progress tick
//     carrying the fraction of the timeout covered by one second.
//
// The Scheduler owns no lock. Every mutation — Submit from callers, expiry
// and tick callbacks from timer goroutines — funnels through the exec
// function supplied at construction, which the owning bar points at its own
// mutex. Hooks therefore always run serialized with caller operations.
package display

import (
	"sync"
	"time"

	"github.com/sneh-joshi/flashline/internal/types"
)

// Display rule constants.
const (
	// ZeroTimeoutHoldMs is how long a zero-timeout entry keeps the display.
	ZeroTimeoutHoldMs = 1500
	// ProgressThresholdMs is the timeout above which progress ticks are
	// emitted while the entry is displayed.
	ProgressThresholdMs = 2000
	// ProgressTickInterval is the spacing between progress ticks.
	ProgressTickInterval = time.Second
)

// Hooks are the scheduler's callbacks into the owning bar. All hooks are
// invoked serialized through exec; they must not call back into the
// Scheduler's mutating methods.
type Hooks struct {
	// Display hands an entry the display slot. waiting reports whether more
	// entries sit in the wait queue behind it.
	Display func(e *types.Entry, waiting bool)
	// Clear is called when a timer expires with nothing left to show.
	Clear func()
	// Tick reports display progress for long-timeout entries. fraction is
	// the share of the timeout one tick interval covers; the first tick
	// fires immediately at display time.
	Tick func(fraction float64)
	// Emptied is called when the drain pops the last waiting entry, after
	// that entry's Display hook has run.
	Emptied func()
}

// Config holds the scheduler's timing knobs. Zero values fall back to the
// display rule constants; tests shrink them to keep runs fast.
type Config struct {
	ZeroTimeoutHoldMs   int64
	ProgressThresholdMs int64
	TickInterval        time.Duration
}

// DefaultConfig returns the production timing values.
func DefaultConfig() Config {
	return Config{
		ZeroTimeoutHoldMs:   ZeroTimeoutHoldMs,
		ProgressThresholdMs: ProgressThresholdMs,
		TickInterval:        ProgressTickInterval,
	}
}

// Scheduler arbitrates the display slot. Not safe for direct concurrent
// use — see the package comment for the serialization contract.
type Scheduler struct {
	cfg   Config
	hooks Hooks
	exec  func(fn func())

	state     State
	waitq     *WaitQueue
	displayed *types.Entry

	expiry *time.Timer

	// tickerDone is non-nil while a progress ticker goroutine runs for the
	// current display. Closing it retires the goroutine; comparing against
	// it lets a queued tick detect that a later display took the slot.
	tickerDone chan struct{}
	tickerWG   sync.WaitGroup

	closed bool
}

// New creates a Scheduler. exec must serialize the given function with every
// other Scheduler call; the owning bar passes a closure over its mutex.
func New(cfg Config, hooks Hooks, exec func(fn func())) *Scheduler {
	if cfg.ZeroTimeoutHoldMs <= 0 {
		cfg.ZeroTimeoutHoldMs = DefaultConfig().ZeroTimeoutHoldMs
	}
	if cfg.ProgressThresholdMs <= 0 {
		cfg.ProgressThresholdMs = DefaultConfig().ProgressThresholdMs
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &Scheduler{
		cfg:   cfg,
		hooks: hooks,
		exec:  exec,
		state: StateIdle,
		waitq: NewWaitQueue(),
	}
}

// Submit routes an entry: if the display slot is free it is shown
// immediately, otherwise it joins the wait queue. Returns true when the
// entry was queued.
func (s *Scheduler) Submit(e *types.Entry) bool {
	if s.state != StateIdle || s.waitq.Len() > 0 {
		s.waitq.Push(e)
		return true
	}
	s.show(e)
	return false
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return s.state }

// QueueDepth returns the number of entries waiting for the display.
func (s *Scheduler) QueueDepth() int { return s.waitq.Len() }

// Displayed returns the entry currently owning the display slot, nil when
// the slot is free or the bar was cleared.
func (s *Scheduler) Displayed() *types.Entry { return s.displayed }

// ClearWaiting drops every waiting entry. The running expiry timer is not
// touched; when it fires the drain finds an empty queue and clears the bar.
func (s *Scheduler) ClearWaiting() {
	s.waitq.Clear()
}

// Close stops the expiry timer and the progress ticker. It must be called
// without holding the serializer lock. A pending expiry that already fired
// observes the closed flag and returns without draining.
func (s *Scheduler) Close() {
	s.exec(func() {
		if s.closed {
			return
		}
		s.closed = true
		s.stopTicker()
		if s.expiry != nil {
			s.expiry.Stop()
		}
	})
	s.tickerWG.Wait()
}

// show gives e the display slot and arms its expiry timer.
func (s *Scheduler) show(e *types.Entry) {
	s.displayed = e
	if e.TimeoutMs == 0 {
		s.state = StateActiveZeroTimeout
	} else {
		s.state = StateActiveTimed
	}

	s.hooks.Display(e, s.waitq.Len() > 0)

	if e.TimeoutMs == 0 {
		s.armExpiry(time.Duration(s.cfg.ZeroTimeoutHoldMs) * time.Millisecond)
		return
	}
	if e.TimeoutMs > s.cfg.ProgressThresholdMs {
		fraction := 1000 / float64(e.TimeoutMs)
		s.hooks.Tick(fraction)
		s.startTicker(fraction)
	}
	s.armExpiry(time.Duration(e.TimeoutMs) * time.Millisecond)
}

func (s *Scheduler) armExpiry(d time.Duration) {
	s.expiry = time.AfterFunc(d, func() {
		s.exec(s.handleExpiry)
	})
}

// handleExpiry runs when the current display's timer fires: retire the
// ticker, then either hand the slot to the next waiting entry or clear the
// bar. Runs serialized through exec.
func (s *Scheduler) handleExpiry() {
	if s.closed {
		return
	}
	s.stopTicker()
	s.state = StateDraining
	s.displayed = nil

	next := s.waitq.Pop()
	if next == nil {
		s.state = StateIdle
		s.hooks.Clear()
		return
	}
	s.show(next)
	if s.waitq.Len() == 0 {
		s.hooks.Emptied()
	}
}

// ─── Progress ticker ──────────────────────────────────────────────────────────

func (s *Scheduler) startTicker(fraction float64) {
	done := make(chan struct{})
	s.tickerDone = done
	s.tickerWG.Add(1)
	go func() {
		defer s.tickerWG.Done()
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.exec(func() {
					// A tick that lost the race against its own retirement
					// must not fire for the display that replaced it.
					if s.tickerDone != done {
						return
					}
					s.hooks.Tick(fraction)
				})
			}
		}
	}()
}

// stopTicker retires the current progress ticker goroutine, if any.
// MUST run serialized through exec.
func (s *Scheduler) stopTicker() {
	if s.tickerDone != nil {
		close(s.tickerDone)
		s.tickerDone = nil
	}
}
