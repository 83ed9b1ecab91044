package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Background(lipgloss.Color("#1A1A1A")).
				Padding(0, 2)

	sessionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B")).
			Background(lipgloss.Color("#1A1A1A")).
			Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#0F0F0F"))
)

var paneTitles = [browserPaneCount]string{"Tree", "Search", "Selected", "Output"}

// SessionTitle labels the open session.
func SessionTitle(user, host, baseDir string) string {
	label := host
	if user != "" {
		label = user + "@" + host
	}
	if baseDir != "" && baseDir != "." {
		label += ":" + baseDir
	}
	return label
}

// renderPaneBar draws the session indicator followed by one tab per pane,
// highlighting the focused pane.
func renderPaneBar(session string, connected bool, active browserPane, selected int, width int) string {
	mark := "○ "
	if connected {
		mark = "● "
	}
	parts := []string{sessionStyle.Render(mark + session)}
	for i, title := range paneTitles {
		if browserPane(i) == paneSelection {
			title = fmt.Sprintf("%s (%d)", title, selected)
		}
		if browserPane(i) == active {
			parts = append(parts, tabActiveStyle.Render(title))
		} else {
			parts = append(parts, tabInactiveStyle.Render(title))
		}
	}

	bar := strings.Join(parts, " ")
	if padding := width - lipgloss.Width(bar); padding > 0 {
		bar += strings.Repeat(" ", padding)
	}
	return tabBarStyle.Width(width).Render(bar)
}
