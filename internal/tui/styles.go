package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/example/crumb-calendar/internal/calendar"
)

// Styles groups the lipgloss styles used by the calendar.
type Styles struct {
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Today     lipgloss.Style
	Weekend   lipgloss.Style
	Cursor    lipgloss.Style
	Visit     lipgloss.Style
	VisitDone lipgloss.Style
	Help      lipgloss.Style
	Message   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Border    lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
}

// DefaultStyles returns the built-in theme.
func DefaultStyles() Styles {
	return Styles{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true),
		Today: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("220")).
			Bold(true),
		Weekend: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Cursor: lipgloss.NewStyle().
			Background(lipgloss.Color("238")),
		Visit: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("240")).
			Italic(true),
		VisitDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("237")).
			Strikethrough(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),
		Focused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true).
			Width(12),
	}
}

// EventStyle paints a block in the event's palette colour.
func EventStyle(c calendar.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(lipgloss.Color(string(c.OrDefault())))
}
