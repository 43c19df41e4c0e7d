package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reelhound/internal/media"
)

var (
	qualityStyle = lipgloss.NewStyle().Width(8).Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle   = lipgloss.NewStyle()
	failedStyle  = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("203"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
)

// StreamItems returns picker lines for streams, placeholders included so the
// user can see which servers failed.
func StreamItems(streams []media.Stream) []string {
	items := make([]string, len(streams))
	for i, s := range streams {
		if s.Placeholder {
			items[i] = "[x] " + s.Label
			continue
		}
		items[i] = fmt.Sprintf("[%s] %s", s.Quality, s.Label)
	}
	return items
}

// RenderStreams renders a titled stream table for terminal output.
func RenderStreams(title string, streams []media.Stream) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	for i, s := range streams {
		if s.Placeholder {
			b.WriteString(failedStyle.Render(fmt.Sprintf("%2d. %-8s %s", i+1, "failed", s.Label)))
		} else {
			fmt.Fprintf(&b, "%2d. %s%s", i+1, qualityStyle.Render(s.Quality.String()), labelStyle.Render(s.Label))
		}
		b.WriteString("\n")
	}
	return b.String()
}
