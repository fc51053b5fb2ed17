package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// RenderMarkdown renders body as terminal markdown wrapped at width. Single
// newlines are kept as hard breaks. If glamour fails the plain text is
// wrapped instead.
func RenderMarkdown(body string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(body)
	}
	out, err := r.Render(body)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(body)
	}
	return strings.Trim(out, "\n")
}
