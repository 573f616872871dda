package island

import (
	"strings"

	lipgloss "github.com/charmbracelet/lipgloss"
)

// Tokyo Night palette
const (
	colorAccent = "#7aa2f7"
	colorText   = "#a9b1d6"
	colorDim    = "#565f89"
	colorAmber  = "#e0af68"
	colorGreen  = "#9ece6a"
)

var (
	islandStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorAccent)).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent))

	contentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorText))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDim)).
			Padding(0, 1)

	selectedButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorGreen)).
				Bold(true).
				Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDim)).
			Italic(true)

	indicatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAmber))
)

// looksLikeMarkdown reports whether content is worth passing through glamour
func looksLikeMarkdown(content string) bool {
	for _, p := range []string{"```", "**", "__", "# ", "- ", "* ", "1. ", "[", "`"} {
		if strings.Contains(content, p) {
			return true
		}
	}
	return false
}
