package ui

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette shared by the report styles.
const (
	colorAccent = lipgloss.Color("62")
	colorTitle  = lipgloss.Color("230")
	colorSlow   = lipgloss.Color("196")
	colorFast   = lipgloss.Color("46")
	colorWarn   = lipgloss.Color("214")
	colorBuild  = lipgloss.Color("141")
	colorMuted  = lipgloss.Color("245")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(colorTitle).Background(colorAccent)
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBuild)
	noteStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	// flagStyles colors the status word that ends a comparison row.
	flagStyles = map[string]lipgloss.Style{
		"SLOWER":               lipgloss.NewStyle().Bold(true).Foreground(colorSlow),
		"FASTER":               lipgloss.NewStyle().Bold(true).Foreground(colorFast),
		"missing in candidate": lipgloss.NewStyle().Foreground(colorWarn),
		"zero baseline":        lipgloss.NewStyle().Foreground(colorWarn),
	}
)
