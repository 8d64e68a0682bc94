package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(0, 1)

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nameStyle   = cellStyle.Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	statusStyles = map[catalog.VersionStatus]lipgloss.Style{
		catalog.StatusCurrent:      cellStyle.Foreground(lipgloss.Color("42")),
		catalog.StatusOutdated:     cellStyle.Foreground(lipgloss.Color("214")),
		catalog.StatusNotInstalled: cellStyle.Foreground(lipgloss.Color("243")),
	}
)

// Title renders a bold heading line.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Dim renders secondary text.
func Dim(s string) string {
	return dimStyle.Render(s)
}

// Panel boxes body under a title. width <= 0 sizes the box to its content.
func Panel(title, body string, width int) string {
	style := panelStyle
	if width > 0 {
		style = style.Width(width - 2)
	}
	body = strings.TrimRight(body, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), style.Render(body))
}

// StatusLabel is the display text for a standard's version status.
func StatusLabel(s catalog.VersionStatus) string {
	switch s {
	case catalog.StatusCurrent:
		return "✅ Current"
	case catalog.StatusOutdated:
		return "⚠️ Outdated"
	case catalog.StatusNotInstalled:
		return "Not installed"
	default:
		return string(s)
	}
}
