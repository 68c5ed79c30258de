package buffer

// DefaultPageSize is the jump width for page moves when none is configured.
const DefaultPageSize = 10

// Navigator maintains the cursor into the buffer: the index of the entry the
// user is currently looking at. Cursor -1 means "buffer empty or nothing
// displayed". The cursor survives display clears; only delete-all and an
// emptied buffer force it back to -1.
//
// Like Buffer, Navigator holds no locks — the owning Bar serializes access.
type Navigator struct {
	cursor   int
	pageSize int
}

// NewNavigator returns a Navigator with cursor -1. pageSize values below 1
// fall back to DefaultPageSize.
func NewNavigator(pageSize int) *Navigator {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Navigator{cursor: -1, pageSize: pageSize}
}

// Cursor returns the current cursor, -1 when nothing is pointed at.
func (n *Navigator) Cursor() int { return n.cursor }

// PageSize returns the configured page-move width.
func (n *Navigator) PageSize() int { return n.pageSize }

// SetCursor forces the cursor. Used by admission (newest index) and by the
// home/end commands; no range check — callers pass indices they just derived
// from the buffer length.
func (n *Navigator) SetCursor(i int) { n.cursor = i }

// Reset puts the cursor back to -1.
func (n *Navigator) Reset() { n.cursor = -1 }

// Revalidate clamps the cursor after a buffer length change: an emptied
// buffer resets to -1, a cursor past the new end clamps to the last index.
func (n *Navigator) Revalidate(length int) {
	switch {
	case length == 0:
		n.cursor = -1
	case n.cursor >= length:
		n.cursor = length - 1
	}
}

// MoveBy resolves a move command against a buffer of the given length and
// returns the new cursor plus whether the caller should refresh the display.
// refresh is false only for the empty buffer (cursor forced to -1).
//
// Page moves wrap only from the exact boundary and clamp otherwise; the four
// page rules are checked before the generic step, in order:
//
//  1. at index 0, page up        → wrap to the last index
//  2. at the last index, page down → wrap to 0
//  3. less than a page from the top, page up     → clamp to 0
//  4. less than a page from the bottom, page down → clamp to the last index
//
// Any other delta is applied directly; results past either end wrap around.
func (n *Navigator) MoveBy(delta, length int) (cursor int, refresh bool) {
	if length == 0 {
		n.cursor = -1
		return n.cursor, false
	}
	last := length - 1
	switch {
	case n.cursor == 0 && delta == -n.pageSize:
		n.cursor = last
	case n.cursor == last && delta == n.pageSize:
		n.cursor = 0
	case n.cursor < n.pageSize && delta == -n.pageSize:
		n.cursor = 0
	case n.cursor > last-n.pageSize && delta == n.pageSize:
		n.cursor = last
	default:
		n.cursor += delta
		if n.cursor < 0 {
			n.cursor = last
		} else if n.cursor > last {
			n.cursor = 0
		}
	}
	return n.cursor, true
}

// Home moves the cursor to the oldest entry.
func (n *Navigator) Home(length int) (cursor int, refresh bool) {
	if length == 0 {
		n.cursor = -1
		return n.cursor, false
	}
	n.cursor = 0
	return n.MoveBy(0, length)
}

// End moves the cursor to the newest entry.
func (n *Navigator) End(length int) (cursor int, refresh bool) {
	if length == 0 {
		n.cursor = -1
		return n.cursor, false
	}
	n.cursor = length - 1
	return n.MoveBy(0, length)
}
