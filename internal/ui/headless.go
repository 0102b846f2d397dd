package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// HeadlessManager decides whether interactive terminal components may run.
type HeadlessManager struct {
	forced *bool
	in     *os.File
	out    *os.File
}

// NewHeadlessManager creates a HeadlessManager that inspects os.Stdin and
// os.Stdout.
func NewHeadlessManager() *HeadlessManager {
	return &HeadlessManager{in: os.Stdin, out: os.Stdout}
}

// IsHeadless returns true when the UI should operate in headless mode.
// ForceHeadless overrides TTY detection. Otherwise both stdin and stdout
// must be terminals for interactive mode.
func (h *HeadlessManager) IsHeadless() bool {
	if h.forced != nil {
		return *h.forced
	}
	return !isTerminal(h.in) || !isTerminal(h.out)
}

// ForceHeadless overrides TTY detection. Pass true to force headless mode,
// or false to force interactive mode regardless of TTY state.
func (h *HeadlessManager) ForceHeadless(force bool) {
	h.forced = &force
}

// ClearForce removes any forced override, reverting to automatic TTY detection.
func (h *HeadlessManager) ClearForce() {
	h.forced = nil
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
