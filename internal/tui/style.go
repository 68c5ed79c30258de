package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sneh-joshi/flashline/internal/style"
	"github.com/sneh-joshi/flashline/internal/types"
)

var (
	titleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // light cyan
	stateStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))             // cyan
	blankStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	countdownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // purple, the default bar color
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnLogStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	errorLogStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	debugLogStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// entryStyle builds the lipgloss style for a displayed entry. A non-empty
// waitingBg overrides the submitted background, marking that more messages
// queue behind the visible one.
func entryStyle(s types.Style, waitingBg string) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1)
	if fg := style.TerminalColor(s.Foreground); fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	bg := s.Background
	if waitingBg != "" {
		bg = waitingBg
	}
	if c := style.TerminalColor(bg); c != "" {
		st = st.Background(lipgloss.Color(c))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	return st
}
