// Package ui provides terminal presentation for the dispatcher: themed
// cards, markdown rendering, spinners, progress bars and line prompts, each
// with a plain fallback when no TTY is attached.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors holds hex colors for the palette. Light and dark terminals pick
// between the two variants of each AdaptiveColor.
type Colors struct {
	Primary   lipgloss.AdaptiveColor
	Secondary string
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
}

// Theme bundles the palette with the color switch.
type Theme struct {
	NoColor bool
	Colors  Colors
}

// NewTheme returns the MoAI palette. noColor disables all styling.
func NewTheme(noColor bool) *Theme {
	return &Theme{
		NoColor: noColor,
		Colors: Colors{
			Primary:   lipgloss.AdaptiveColor{Light: "#C45A3C", Dark: "#DA7756"},
			Secondary: "#F59E0B",
			Success:   lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"},
			Warning:   lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"},
			Error:     lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"},
			Muted:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
			Border:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		},
	}
}

func (t *Theme) style(c lipgloss.AdaptiveColor) lipgloss.Style {
	if t.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}

// Primary renders s in the primary color.
func (t *Theme) Primary(s string) string { return t.style(t.Colors.Primary).Render(s) }

// Muted renders s in the muted color.
func (t *Theme) Muted(s string) string { return t.style(t.Colors.Muted).Render(s) }

// SymSuccess returns the success glyph.
func (t *Theme) SymSuccess() string { return t.style(t.Colors.Success).Render("\u2713") }

// SymError returns the failure glyph.
func (t *Theme) SymError() string { return t.style(t.Colors.Error).Render("\u2717") }

// SymWarning returns the warning glyph.
func (t *Theme) SymWarning() string { return t.style(t.Colors.Warning).Render("!") }

// cardStyle returns a rounded-border card style. Without color the border
// is kept so the layout stays the same.
func (t *Theme) cardStyle() lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)
	if !t.NoColor {
		s = s.BorderForeground(t.Colors.Border)
	}
	return s
}

// Card renders content inside a rounded border box with a styled title.
func (t *Theme) Card(title, content string) string {
	titleLine := t.style(t.Colors.Primary).Bold(!t.NoColor).Render(title)
	body := titleLine
	if content != "" {
		body += "\n\n" + content
	}
	return t.cardStyle().Render(body)
}

// SuccessCard renders a success message with optional detail lines.
func (t *Theme) SuccessCard(title string, details ...string) string {
	return t.statusCard(t.SymSuccess(), title, details)
}

// ErrorCard renders a failure message with optional detail lines.
func (t *Theme) ErrorCard(title string, details ...string) string {
	return t.statusCard(t.SymError(), title, details)
}

func (t *Theme) statusCard(sym, title string, details []string) string {
	var body strings.Builder
	body.WriteString(sym + " " + title)
	if len(details) > 0 {
		body.WriteString("\n\n")
		body.WriteString(strings.Join(details, "\n"))
	}
	return t.cardStyle().Render(body.String())
}
