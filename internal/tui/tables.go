package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
)

// DefaultEmoji stands in for personas without one.
const DefaultEmoji = "👤"

// Emoji returns the persona's emoji or DefaultEmoji.
func Emoji(p catalog.Persona) string {
	if p.Emoji != "" {
		return p.Emoji
	}
	return DefaultEmoji
}

// PersonaTitle is the "<emoji> <Character>" label used for panels.
func PersonaTitle(p catalog.Persona) string {
	return Emoji(p) + " " + p.DisplayName()
}

// PersonasTable renders the persona listing.
func PersonasTable(personas []catalog.Persona) string {
	rows := make([][]string, 0, len(personas))
	for _, p := range personas {
		model := p.ShortModel()
		if model == "" {
			model = "unknown"
		}
		rows = append(rows, []string{Emoji(p), p.Name, p.Role, p.Domain, model})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("", "Persona", "Role", "Domain", "Model").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return nameStyle
			default:
				return cellStyle
			}
		})

	return Title("🎯 Gatekeep Personas") + "\n" + t.String()
}

// StandardsTable renders standards/versions.yaml.
func StandardsTable(versions []catalog.StandardVersion) string {
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		installed := v.Installed
		if installed == "" {
			installed = "Not installed"
		}
		latest := v.Latest
		if latest == "" {
			latest = "Unknown"
		}
		rows = append(rows, []string{v.ID, installed, latest, StatusLabel(v.Status)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Standard", "Installed", "Latest", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			case col == 3 && row >= 0 && row < len(versions):
				if s, ok := statusStyles[versions[row].Status]; ok {
					return s
				}
			}
			return cellStyle
		})

	return Title("📋 Standards Status") + "\n" + t.String()
}
