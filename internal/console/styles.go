package console

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	selected lipgloss.Style
	found    lipgloss.Style
	failure  lipgloss.Style
	faint    lipgloss.Style
	panel    lipgloss.Style
	prompt   lipgloss.Style
	gain     lipgloss.Style
	loss     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		cell:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("159")),
		found:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failure:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		faint:    lipgloss.NewStyle().Faint(true),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		prompt:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		gain:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		loss:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}
