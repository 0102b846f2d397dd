package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("ui: prompt cancelled")

// LinePrompt reads one command line at a time. At end of input it returns
// io.EOF.
type LinePrompt interface {
	ReadLine(ctx context.Context, label string) (string, error)
}

// NewLinePrompt returns a huh-backed prompt on a TTY and a plain line
// reader over in when headless.
func NewLinePrompt(theme *Theme, hm *HeadlessManager, in io.Reader) LinePrompt {
	if hm.IsHeadless() {
		return &scannerPrompt{scanner: bufio.NewScanner(in)}
	}
	return &formPrompt{theme: theme}
}

// formPrompt runs a single-field huh form per line.
type formPrompt struct {
	theme *Theme
}

func (p *formPrompt) ReadLine(ctx context.Context, label string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(label).
		Prompt("> ").
		Value(&value)

	form := huh.NewForm(huh.NewGroup(input)).
		WithTheme(p.huhTheme()).
		WithShowHelp(false)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func (p *formPrompt) huhTheme() *huh.Theme {
	if p.theme.NoColor {
		return huh.ThemeBase()
	}
	t := huh.ThemeCharm()
	t.Focused.Title = t.Focused.Title.Foreground(p.theme.Colors.Primary)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(p.theme.Colors.Primary)
	return t
}

// scannerPrompt reads lines from a non-interactive reader. No label is
// printed so piped scripts produce only command output.
type scannerPrompt struct {
	scanner *bufio.Scanner
}

func (p *scannerPrompt) ReadLine(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}
