package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // headings
	Good    lipgloss.Color // correct predictions
	Bad     lipgloss.Color // wrong predictions
	Dim     lipgloss.Color // secondary text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Good:    lipgloss.Color("#00ff9f"),
	Bad:     lipgloss.Color("#ff5f87"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Good  lipgloss.Style
	Bad   lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Good:  lipgloss.NewStyle().Foreground(t.Good),
		Bad:   lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Mark renders "o" for a correct prediction and "x" for a wrong one.
func (s Styles) Mark(ok bool) string {
	if ok {
		return s.Good.Render("o")
	}
	return s.Bad.Render("x")
}
