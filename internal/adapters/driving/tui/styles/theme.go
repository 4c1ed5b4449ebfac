// Package styles provides colour themes and styling for terminal output.
// Both the one-shot CLI renderer and the interactive console use it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// Theme defines the colour palette.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color

	// National, Regional and Urban colour sources by corpus.
	National lipgloss.Color
	Regional lipgloss.Color
	Urban    lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#C2410C"), // Terracotta
		Secondary:  lipgloss.Color("#0E7490"), // Teal
		Foreground: lipgloss.Color("#E7E5E4"), // Stone
		Muted:      lipgloss.Color("#78716C"), // Warm gray
		Success:    lipgloss.Color("#65A30D"), // Olive
		Warning:    lipgloss.Color("#EAB308"), // Ochre
		Error:      lipgloss.Color("#DC2626"), // Red
		Border:     lipgloss.Color("#57534E"),
		National:   lipgloss.Color("#2563EB"),
		Regional:   lipgloss.Color("#9333EA"),
		Urban:      lipgloss.Color("#059669"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	// Citation renders the formal reference of a source.
	Citation lipgloss.Style

	// Disclaimer frames the legal notice under an answer.
	Disclaimer lipgloss.Style

	// Badge renders short labels such as the chosen strategy.
	Badge lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Citation: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Disclaimer: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Warning).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(theme.Warning).
			PaddingLeft(1),

		Badge: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Secondary).
			Padding(0, 1),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#1C1917")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Namespace returns the label style for a corpus.
func (s *Styles) Namespace(ns domain.Namespace) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch ns {
	case domain.NamespaceNational:
		return base.Foreground(s.theme.National)
	case domain.NamespaceRegional:
		return base.Foreground(s.theme.Regional)
	case domain.NamespaceUrban:
		return base.Foreground(s.theme.Urban)
	default:
		return base.Foreground(s.theme.Muted)
	}
}

// Score colours a 0-1 relevance or confidence value.
func (s *Styles) Score(v float64) lipgloss.Style {
	switch {
	case v >= 0.75:
		return s.Success
	case v >= 0.5:
		return s.Warning
	default:
		return s.Muted
	}
}
