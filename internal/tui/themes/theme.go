// Package themes holds the color schemes of the interactive form.
package themes

import (
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Label         lipgloss.Style
	FocusedLabel  lipgloss.Style
	Muted         lipgloss.Style
	Bold          lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

func build(primary, border, muted, fg, success, warning, failure lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Border:  border,
		Error:   failure,
		Warning: warning,
		Success: success,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(fg).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(fg).
			Width(24),
		FocusedLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Width(24),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(fg),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(failure).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#a3a3a3"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#f59e0b"),
	lipgloss.Color("#ef4444"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#a6adc8"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#f9e2af"),
	lipgloss.Color("#f38ba8"),
)

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// Band returns the style for a risk band.
func (t Theme) Band(band model.RiskBand) lipgloss.Style {
	switch band {
	case model.RiskHigh:
		return t.StatusError
	case model.RiskMedium:
		return t.StatusWarning
	default:
		return t.StatusSuccess
	}
}

// BandBox frames a prediction summary in the band's color.
func (t Theme) BandBox(band model.RiskBand) lipgloss.Style {
	color := t.Success
	switch band {
	case model.RiskHigh:
		color = t.Error
	case model.RiskMedium:
		color = t.Warning
	}
	return t.RoundedBox.BorderForeground(color)
}
