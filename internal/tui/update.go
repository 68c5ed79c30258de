package tui

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/types"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.stats = m.bar.Stats()
		return m, tick()

	case barEventMsg:
		return m.handleBarEvent(msg.event)

	case slogMsg:
		return m.handleSlogMsg(msg)

	case exportDoneMsg:
		return m.handleExportDone(msg)
	}

	return m, nil
}

// handleKey maps the keyboard onto bar operations. Navigation mirrors the
// buffer's viewport keys; the remaining keys cover maintenance.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up":
		m.bar.Prev()
	case "down":
		m.bar.Next()
	case "pgup":
		m.bar.PageUp()
	case "pgdown":
		m.bar.PageDown()
	case "home":
		m.bar.Home()
	case "end":
		m.bar.End()
	case "x":
		m.bar.DeleteCurrent()
	case "X":
		m.bar.DeleteAll()
	case "s":
		return m, exportCmd(m.bar)
	case "r":
		m.submitSample()
	}
	return m, nil
}

// handleBarEvent folds one display event into the view state.
func (m *Model) handleBarEvent(ev types.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case types.EventDisplay:
		m.visible = ev.Entry
		m.progress = 0
		m.ticking = false
	case types.EventClear:
		m.visible = nil
		m.progress = 0
		m.ticking = false
	case types.EventProgressTick:
		m.ticking = true
		m.progress += ev.Fraction
		if m.progress > 1 {
			m.progress = 1
		}
	case types.EventIndexLabel:
		m.label = ev.Label
	}
	return m, nil
}

// handleSlogMsg appends a log record to the log pane, keeping at most
// maxLogLines.
func (m *Model) handleSlogMsg(msg slogMsg) (tea.Model, tea.Cmd) {
	m.slogLines = append(m.slogLines, slogLine{level: msg.level, message: msg.message})
	if len(m.slogLines) > maxLogLines {
		m.slogLines = m.slogLines[len(m.slogLines)-maxLogLines:]
	}
	return m, nil
}

// handleExportDone surfaces export failures in the log pane. Successful
// exports are already reported through the bar's own logger.
func (m *Model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.handleSlogMsg(slogMsg{
			level:   slog.LevelError,
			message: fmt.Sprintf("export failed: %v", msg.err),
		})
	}
	return m, nil
}

// exportCmd writes the buffer to the configured export directory off the
// update loop.
func exportCmd(b *bar.Bar) tea.Cmd {
	return func() tea.Msg {
		file, count, err := b.Export("")
		return exportDoneMsg{file: file, count: count, err: err}
	}
}

// submitSample submits a generated message: timed four to ten seconds with a
// 40% chance, zero-timeout otherwise, bold two times in five, a random mid
// gamut background with its complementary foreground.
func (m *Model) submitSample() {
	m.seq++

	var timeoutMs int64
	if m.rng.Intn(10) < 4 {
		timeoutMs = int64(m.rng.Intn(7)+4) * 1000
	}
	bold := m.rng.Intn(5) < 2
	bg := 0x111111 + m.rng.Intn(0xeeeeee-0x111111+1)
	fg := 0xffffff - bg

	_, _ = m.bar.Submit(bar.SubmitRequest{
		Text:      fmt.Sprintf("%03d: sample message bold:%t timeout:%dms", m.seq, bold, timeoutMs),
		TimeoutMs: timeoutMs,
		Style: types.Style{
			Foreground: fmt.Sprintf("#%06x", fg),
			Background: fmt.Sprintf("#%06x", bg),
			Bold:       bold,
		},
	})
}
