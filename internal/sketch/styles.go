package sketch

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	errorColor   = lipgloss.Color("#EF4444") // Red

	toolbarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0E0E0")).
			Background(primaryColor).
			Padding(0, 1)

	toolbarBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(primaryColor)

	toolbarHintStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	cursorStyle = lipgloss.NewStyle().Reverse(true)

	promptBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	promptTitleStyle = lipgloss.NewStyle().Bold(true)

	promptErrorStyle = lipgloss.NewStyle().
				Foreground(errorColor)
)

// inkStyle returns the style for a stroke drawn in color.
func inkStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
