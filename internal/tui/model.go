// Package tui is the interactive status bar console. It renders the visible
// message with its submitted style, the zero-padded position label, a
// countdown bar for timed displays and a small log pane, and maps the
// keyboard onto the bar's navigation and maintenance operations.
package tui

import (
	"log/slog"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/style"
	"github.com/sneh-joshi/flashline/internal/types"
)

const (
	tickInterval = 100 * time.Millisecond
	maxLogLines  = 6
)

// slogLine is one rendered row of the log pane.
type slogLine struct {
	level   slog.Level
	message string
}

// Model is the Bubble Tea model for the status bar console.
type Model struct {
	bar *bar.Bar

	// Display state, driven entirely by the bar's event stream.
	visible  *types.Entry     // entry on screen, nil when the display is blank
	label    types.IndexLabel // position indicator
	progress float64          // elapsed fraction of the active timed display
	ticking  bool             // progress ticks are arriving for the visible entry

	stats bar.Stats // refreshed on every tick

	// waitingBg recolors the visible entry's background while more
	// messages queue behind it.
	waitingBg string

	slogLines []slogLine
	width     int
	quitting  bool

	seq int        // counter for generated sample messages
	rng *rand.Rand // sample message colors and timeouts
}

// NewModel creates the console model attached to b. The initial display
// state is pulled from the bar so a console attached mid-stream renders
// correctly before the first event arrives. An empty waitingBg falls back
// to the widget's standard wait indicator color.
func NewModel(b *bar.Bar, waitingBg string) *Model {
	if waitingBg == "" {
		waitingBg = style.WaitingBackground
	}
	visible, label := b.Current()
	return &Model{
		bar:       b,
		visible:   visible,
		label:     label,
		stats:     b.Stats(),
		width:     80,
		waitingBg: waitingBg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// FinalView returns the last rendered frame for printing to scrollback
// after the alternate screen exits.
func (m *Model) FinalView() string {
	return m.View()
}

// tick returns a command that sends a tickMsg after the tick interval.
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
