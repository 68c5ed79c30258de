package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sneh-joshi/flashline/internal/types"
)

// sender abstracts tea.Program.Send for testing.
type sender interface {
	Send(msg tea.Msg)
}

// Pump forwards bar events to the program until the subscription channel
// closes. Run it on its own goroutine; the bar publishes without blocking,
// so a briefly busy update loop only delays the pump, never the bar.
func Pump(target sender, events <-chan types.Event) {
	for ev := range events {
		target.Send(barEventMsg{event: ev})
	}
}
