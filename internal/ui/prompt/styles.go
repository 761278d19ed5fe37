package prompt

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mcoot/autoumpire/internal/ui"
)

// Umpire palette
var (
	ColorTitle   = lipgloss.Color("#C0392B")
	ColorAccent  = lipgloss.Color("#E6B0AA")
	ColorSuccess = lipgloss.Color("#27AE60")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#7F8C8D")
)

// Styles holds the terminal styles for labels and headings.
type Styles struct {
	Title   lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Box     lipgloss.Style
}

// DefaultStyles returns the styles used by the terminal prompter.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTitle),
		Info:    lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1),
	}
}

// Label renders a label with the style matching its kind.
func (s Styles) Label(l ui.Label) string {
	switch l.Style {
	case ui.LabelSuccess:
		return s.Success.Render("✓ " + l.Text)
	case ui.LabelWarning:
		return s.Warning.Render("⚠ " + l.Text)
	case ui.LabelError:
		return s.Error.Render("✗ " + l.Text)
	}
	return s.Info.Render(l.Text)
}
