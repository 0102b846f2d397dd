package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the wrap width for rendered markdown.
const DefaultWordWrap = 80

// Markdown renders markdown for the terminal.
type Markdown struct {
	theme    *Theme
	headless *HeadlessManager
	wrap     int
}

// NewMarkdown returns a renderer that styles markdown with glamour on a TTY
// and passes it through unchanged otherwise.
func NewMarkdown(theme *Theme, hm *HeadlessManager) *Markdown {
	return &Markdown{theme: theme, headless: hm, wrap: DefaultWordWrap}
}

// Render returns md ready to print.
func (m *Markdown) Render(md string) (string, error) {
	if m.headless.IsHeadless() || m.theme.NoColor {
		return md, nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.wrap),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
