package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level, format string
		wantErr       bool
		wantJSON      bool
	}{
		{"debug", "text", false, false},
		{"WARN", "", false, false},
		{"info", "json", false, true},
		{"verbose", "text", true, false},
		{"error", "xml", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			logger.Error("probe", "key", "value")
			if got := strings.HasPrefix(buf.String(), "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(filepath.Join(root, ".moai"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findProjectRoot(nested); got != root {
		t.Errorf("findProjectRoot(nested) = %q, want %q", got, root)
	}

	bare := t.TempDir()
	if got := findProjectRoot(bare); got != bare {
		t.Errorf("without .moai the start directory is used: got %q", got)
	}
}

func TestInitDependencies(t *testing.T) {
	root := newProject(t, map[string]string{
		".moai/config/sections/system.yaml":  "system:\n  log_level: error\n",
		".moai/config/sections/history.yaml": "history:\n  enabled: false\n",
	})
	var stderr bytes.Buffer
	d, err := InitDependencies(Options{Project: root, LogLevel: "debug", Stderr: &stderr})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if d.Root != root {
		t.Errorf("Root = %q", d.Root)
	}
	if d.History != nil {
		t.Error("history disabled in config must not open a store")
	}
	if _, ok := d.Registry.Lookup("/help"); !ok {
		t.Error("built-ins not registered")
	}
	if !strings.Contains(stderr.String(), "dependencies initialized") {
		t.Errorf("--log-level debug should override system.log_level:\n%s", stderr.String())
	}
}

func TestInitDependencies_Errors(t *testing.T) {
	t.Run("missing project", func(t *testing.T) {
		_, err := InitDependencies(Options{Project: filepath.Join(t.TempDir(), "nope"), Stderr: &bytes.Buffer{}})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		root := newProject(t, map[string]string{
			".moai/config/sections/system.yaml": "system:\n  log_format: xml\n",
		})
		if _, err := InitDependencies(Options{Project: root, Stderr: &bytes.Buffer{}}); err == nil {
			t.Fatal("expected configuration error")
		}
	})

	t.Run("dangling manifest alias", func(t *testing.T) {
		root := newProject(t, map[string]string{
			"custom.yaml": "aliases:\n  - alias: /x\n    target: /missing\n",
		})
		_, err := InitDependencies(Options{Project: root, Manifest: "custom.yaml", Stderr: &bytes.Buffer{}})
		if !errors.Is(err, command.ErrDanglingAlias) {
			t.Fatalf("got %v, want ErrDanglingAlias", err)
		}
	})

	t.Run("manifest conflicts with built-in", func(t *testing.T) {
		root := newProject(t, map[string]string{
			".moai/config/commands.yaml": "aliases:\n  - alias: /help\n    target: /status\n",
		})
		_, err := InitDependencies(Options{Project: root, Stderr: &bytes.Buffer{}})
		if !errors.Is(err, command.ErrAliasConflict) {
			t.Fatalf("got %v, want ErrAliasConflict", err)
		}
	})
}

func TestFormatOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"stringer", stringer("custom"), "custom"},
		{"map", map[string]int{"n": 1}, "{\n  \"n\": 1\n}"},
	}
	for _, tt := range tests {
		if got := formatOutput(tt.in); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

type stringer string

func (s stringer) String() string { return string(s) }
