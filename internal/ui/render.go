package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Setup picks the color profile for output written to w. Color is disabled
// when noColor is set, NO_COLOR is present, or w is not a terminal.
func Setup(w io.Writer, noColor bool) {
	if _, ok := os.LookupEnv("NO_COLOR"); noColor || ok {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}

// Heading styles a report group heading. It fits benchmark.ReportOptions.
func Heading(title string) string {
	return headingStyle.Render(title)
}

// Banner styles a one-line banner such as the build version.
func Banner(text string) string {
	return bannerStyle.Render(text)
}

// Note styles secondary text.
func Note(text string) string {
	return noteStyle.Render(text)
}

var flagRe = regexp.MustCompile(`\b(SLOWER|FASTER|missing in candidate|zero baseline)$`)

// HighlightFlags colors the trailing regression flag of each report line.
func HighlightFlags(report string) string {
	lines := strings.Split(report, "\n")
	for i, line := range lines {
		lines[i] = flagRe.ReplaceAllStringFunc(line, func(flag string) string {
			return flagStyles[flag].Render(flag)
		})
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders markdown for the terminal with glamour.
func RenderMarkdown(md string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
