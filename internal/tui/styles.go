package tui

import "github.com/charmbracelet/lipgloss"

const (
	StatusPending  = "pending"
	StatusUpdating = "updating"
	StatusUpdated  = "updated"
	StatusFailed   = "failed"
)

var (
	// HeaderStyle styles the title and column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// SuccessStyle and ErrorStyle mark one-line command results.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[string]lipgloss.Style{
		StatusUpdated:  SuccessStyle,
		StatusUpdating: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusFailed:   ErrorStyle,
		StatusPending:  lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
