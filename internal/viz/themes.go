package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view. Each alliance side has its own.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeRed = Theme{
		Name:    "red",
		Primary: lipgloss.Color("#ff5f5f"),
		Accent:  lipgloss.Color("#ffaf87"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#8a6a6a"),
		Success: lipgloss.Color("#5fd068"),
		Warning: lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
	}

	ThemeBlue = Theme{
		Name:    "blue",
		Primary: lipgloss.Color("#5fafff"),
		Accent:  lipgloss.Color("#87d7ff"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4f6f8f"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	Themes = []Theme{ThemeRed, ThemeBlue}
)

// GetTheme returns the theme for a side, red when unknown.
func GetTheme(side string) Theme {
	for _, t := range Themes {
		if t.Name == side {
			return t
		}
	}
	return ThemeRed
}
