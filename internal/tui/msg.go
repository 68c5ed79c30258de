package tui

import (
	"log/slog"
	"time"

	"github.com/sneh-joshi/flashline/internal/types"
)

// barEventMsg wraps a display event as a Bubble Tea message.
type barEventMsg struct {
	event types.Event
}

// tickMsg triggers periodic UI refreshes (stats footer, countdown seconds).
type tickMsg time.Time

// slogMsg delivers a structured log record to the log pane.
type slogMsg struct {
	level   slog.Level
	message string
}

// exportDoneMsg reports the outcome of a buffer export started with the
// save key.
type exportDoneMsg struct {
	file  string
	count int
	err   error
}
