package display

// statemachine.go — display lifecycle state transition rules.
//
// State diagram:
//
//	IDLE ──────────────► ACTIVE_TIMED ────────┐
//	  │                                       │
//	  └────────────► ACTIVE_ZERO_TIMEOUT ─────┤
//	                                          ▼
//	  ┌─────────────────────────────────── DRAINING
//	  │                                       │
//	  ▼                       ┌───────────────┤
//	IDLE                      ▼               ▼
//	(queue empty,       ACTIVE_TIMED   ACTIVE_ZERO_TIMEOUT
//	 bar cleared)       (popped entry  (popped entry has
//	                     has timeout)   zero timeout)

// State is the lifecycle state of the display scheduler.
type State uint8

const (
	// StateIdle means nothing owns the display and the wait queue is empty.
	StateIdle State = iota
	// StateActiveTimed means a message with a positive timeout owns the
	// display and its expiry timer is running.
	StateActiveTimed
	// StateActiveZeroTimeout means a zero-timeout message owns the display
	// for the fixed hold duration.
	StateActiveZeroTimeout
	// StateDraining is the transient state between a timer firing and the
	// next wait-queue entry (or the cleared bar) taking over.
	StateDraining
)

// String returns the lowercase wire name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActiveTimed:
		return "active_timed"
	case StateActiveZeroTimeout:
		return "active_zero_timeout"
	case StateDraining:
		return "draining"
	}
	return "unknown"
}

// ValidTransition reports whether the transition from → to is a legal
// state change for the display scheduler.
//
// Used defensively in tests; production code drives transitions through the
// Scheduler methods (Submit, handleExpiry) which already enforce the rules.
func ValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		// IDLE can only move to one of the ACTIVE states (via Submit).
		return to == StateActiveTimed || to == StateActiveZeroTimeout
	case StateActiveTimed, StateActiveZeroTimeout:
		// ACTIVE can only move to DRAINING — the expiry timer always runs
		// to completion, there is no cancel path.
		return to == StateDraining
	case StateDraining:
		// DRAINING can:
		//   → ACTIVE_TIMED         — popped entry has a positive timeout
		//   → ACTIVE_ZERO_TIMEOUT  — popped entry has timeout zero
		//   → IDLE                 — wait queue empty, bar cleared
		return to == StateActiveTimed || to == StateActiveZeroTimeout || to == StateIdle
	}
	return false
}
