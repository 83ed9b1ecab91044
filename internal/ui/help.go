package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#7D56F4")).
	Padding(1, 3).
	Bold(false)

var helpSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

func helpContent() string {
	var b strings.Builder
	b.WriteString(helpSectionStyle.Render("Browser") + "\n")
	for _, k := range browserKeys.bindings() {
		h := k.Help()
		fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
	}
	b.WriteString("\n" + helpSectionStyle.Render("Search box") + "\n")
	b.WriteString("  ↑/↓        choose a suggestion\n")
	b.WriteString("  Enter      add the highlighted suggestion, or the typed path\n")
	b.WriteString("  Esc        leave the search box\n")
	b.WriteString("\n" + helpSectionStyle.Render("Connection screen") + "\n")
	b.WriteString("  Tab        next field / recent connections\n")
	b.WriteString("  Enter      connect, or reuse the highlighted recent\n")
	b.WriteString("  Del        forget the highlighted recent\n")
	return b.String()
}

// RenderHelp returns the help overlay view.
func RenderHelp(width, height int) string {
	box := helpStyle.Render(helpContent())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
