package ui

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func testTheme() *Theme {
	return NewTheme(false)
}

// newTestProgram creates a tea.Program configured for test environments without a TTY.
func newTestProgram(m tea.Model) *tea.Program {
	return tea.NewProgram(m,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
	)
}

// startTestProgram starts a tea.Program in a goroutine and returns a done channel.
func startTestProgram(p *tea.Program) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()
	// Allow the program goroutine to initialize before sending messages.
	time.Sleep(10 * time.Millisecond)
	return done
}

// waitForProgram waits for the program to exit, failing the test if it exceeds timeout.
func waitForProgram(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("tea.Program did not exit within 2 second timeout")
	}
}

func TestInteractiveSpinner_SetTitleThenStop(t *testing.T) {
	m := newSpinnerModel(testTheme(), "Dispatching /status")
	p := newTestProgram(m)
	s := &interactiveSpinner{program: p, once: sync.Once{}}
	done := startTestProgram(p)

	s.SetTitle("Dispatching /validate")
	s.Stop()
	s.Stop()

	waitForProgram(t, done)
}

func TestInteractiveProgressBar_IncrementDone(t *testing.T) {
	m := newProgressModel(testTheme(), "batch", 3)
	p := newTestProgram(m)
	pb := &interactiveProgressBar{program: p, once: sync.Once{}}
	done := startTestProgram(p)

	pb.Increment(1)
	pb.SetTitle("/date")
	pb.Increment(1)
	pb.Done()
	pb.Done()

	waitForProgram(t, done)
}

func TestSpinnerModel_Update(t *testing.T) {
	m := newSpinnerModel(testTheme(), "Ticking")
	tickCmd := m.Init()
	if tickCmd == nil {
		t.Fatal("Init should return a non-nil tick command")
	}
	if msg, ok := tickCmd().(spinner.TickMsg); ok {
		updated, _ := m.Update(msg)
		if updated.(spinnerModel).done {
			t.Error("tick should not stop the spinner")
		}
	}

	updated, _ := m.Update(spinnerTitleMsg("renamed"))
	if got := updated.(spinnerModel); got.title != "renamed" {
		t.Errorf("title: got %q", got.title)
	}

	updated, cmd := m.Update(spinnerStopMsg{})
	if !updated.(spinnerModel).done || cmd == nil {
		t.Error("stop message should finish the model and quit")
	}
	if v := updated.View(); v != "" {
		t.Errorf("View after stop: got %q", v)
	}
}

func TestProgressModel_Update(t *testing.T) {
	m := newProgressModel(testTheme(), "steps", 2)

	updated, _ := m.Update(progress.FrameMsg{})
	if updated.(progressModel).done {
		t.Error("FrameMsg should not mark the progress bar as done")
	}

	updated, _ = m.Update(progressIncrMsg(5))
	if got := updated.(progressModel).current; got != 2 {
		t.Errorf("current clamps to total: got %d", got)
	}
	if v := updated.View(); !strings.Contains(v, "[2/2] steps") {
		t.Errorf("View: got %q", v)
	}
}

func TestHeadlessProgressBar(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	hm := NewHeadlessManager()
	hm.ForceHeadless(true)
	pb := NewProgress(testTheme(), hm, &buf).Start("batch", 2)

	pb.Increment(1)
	pb.SetTitle("/date")
	pb.Done()

	want := "[1/2] batch\n[2/2] /date\n"
	if buf.String() != want {
		t.Errorf("output: got %q, want %q", buf.String(), want)
	}
}

func TestHeadlessSpinnerIsSilent(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	hm := NewHeadlessManager()
	hm.ForceHeadless(true)
	sp := NewProgress(testTheme(), hm, &buf).Spinner("Dispatching")
	sp.SetTitle("still going")
	sp.Stop()

	if buf.Len() != 0 {
		t.Errorf("headless spinner wrote %q", buf.String())
	}
}

func TestNoColorUsesHeadlessPath(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	hm := NewHeadlessManager()
	hm.ForceHeadless(false)
	pb := NewProgress(NewTheme(true), hm, &buf).Start("plain", 1)
	pb.Done()

	if buf.String() != "[1/1] plain\n" {
		t.Errorf("output: got %q", buf.String())
	}
}
