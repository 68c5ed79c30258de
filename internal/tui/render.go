package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sneh-joshi/flashline/internal/types"
)

const (
	countdownWidth = 20
	countdownFull  = '█'
	countdownEmpty = '░'
)

// View implements tea.Model. The layout is stable: title, message line,
// position line, log pane, help footer.
func (m *Model) View() string {
	var b strings.Builder

	// 1. Title with buffer status right-aligned
	status := fmt.Sprintf("%d/%d buffered · %s", m.stats.Length, m.stats.Capacity, m.stats.State)
	b.WriteString(rightAlign(" "+titleStyle.Render("flashline"), stateStyle.Render(status), m.width))
	b.WriteString("\n\n")

	// 2. The message line, styled the way it was submitted. A blank display
	// renders as an empty line, like the widget it drives.
	if m.visible != nil {
		waitingBg := ""
		if m.label.WaitDepth > 0 {
			waitingBg = m.waitingBg
		}
		b.WriteString(entryStyle(m.visible.Style, waitingBg).Render(m.visible.Text))
	}
	b.WriteString("\n")

	// 3. Position label plus the elapsed countdown for timed displays
	label := renderIndexLabel(m.label)
	if m.label.Cursor < 0 {
		b.WriteString(blankStyle.Render(label))
	} else {
		b.WriteString(labelStyle.Render(label))
	}
	if m.ticking && m.visible != nil {
		remaining := (1 - m.progress) * float64(m.visible.TimeoutMs) / 1000
		b.WriteString("  ")
		b.WriteString(countdownStyle.Render(renderCountdown(m.progress)))
		fmt.Fprintf(&b, " %.0fs", remaining)
	}
	b.WriteString("\n")

	// 4. Log pane
	renderLogPanel(&b, m.slogLines, m.width)

	// 5. Help footer
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(
		" ↑/↓ message · pgup/pgdn page · home/end ends · x delete · X delete all · s save · r sample · q quit"))

	return b.String()
}

// renderIndexLabel formats the position indicator. Active displays render
// zero-padded "cursor/max [waiting]" with the field width taken from the
// buffer capacity; a blank display renders dashes one wider than the fields.
func renderIndexLabel(l types.IndexLabel) string {
	w := len(strconv.Itoa(l.Capacity))
	if l.Cursor < 0 {
		dashes := strings.Repeat("-", w+1)
		return dashes + "/" + dashes + " [-]"
	}
	return fmt.Sprintf("%0*d/%0*d [%d]", w, l.Cursor, w, l.Length-1, l.WaitDepth)
}

// renderCountdown renders the elapsed fraction of a timed display as a
// Unicode bar that fills left to right.
func renderCountdown(progress float64) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * countdownWidth)
	return strings.Repeat(string(countdownFull), filled) +
		strings.Repeat(string(countdownEmpty), countdownWidth-filled)
}

// renderLogPanel renders the log pane if there are log lines.
func renderLogPanel(b *strings.Builder, lines []slogLine, width int) {
	if len(lines) == 0 {
		return
	}

	sep := "── Logs " + strings.Repeat("─", max(width-8, 0))
	b.WriteString("\n")
	b.WriteString(logSeparatorStyle.Render(sep))
	b.WriteString("\n")

	for _, line := range lines {
		text := fmt.Sprintf(" %s %s", slogLevelLabel(line.level), line.message)
		b.WriteString(slogLineStyle(line.level, text))
		b.WriteString("\n")
	}
}

// slogLevelLabel returns a styled short label for the log level.
func slogLevelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return errorLogStyle.Render("ERROR")
	case level >= slog.LevelWarn:
		return warnLogStyle.Render("WARN")
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return debugLogStyle.Render("DEBUG")
	}
}

// slogLineStyle applies color to the entire log line based on level.
func slogLineStyle(level slog.Level, text string) string {
	switch {
	case level >= slog.LevelError:
		return errorLogStyle.Render(text)
	case level >= slog.LevelWarn:
		return warnLogStyle.Render(text)
	case level >= slog.LevelInfo:
		return text
	default:
		return debugLogStyle.Render(text)
	}
}

// rightAlign places suffix at the right edge of a line of given width.
// Uses width-1 to prevent terminals from wrapping at the exact column
// boundary.
func rightAlign(prefix, suffix string, width int) string {
	gap := max(width-1-lipgloss.Width(prefix)-lipgloss.Width(suffix), 1)
	return prefix + strings.Repeat(" ", gap) + suffix
}
