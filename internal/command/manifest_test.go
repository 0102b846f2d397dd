package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testManifest = `
aliases:
  - alias: /lint
    target: /lint-docs
    deprecation: "/lint is deprecated, use /lint-docs"
commands:
  - name: /lint-docs
    description: Run the docs linter
    category: quality
    usage: /lint-docs [path]
    examples: ["/lint-docs docs/"]
    exec: ["node", "scripts/lint-docs.js", "--quiet"]
`

func TestLoadManifestMissingFile(t *testing.T) {
	t.Parallel()

	m, err := LoadManifest(filepath.Join(t.TempDir(), "commands.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest missing: %v", err)
	}
	if len(m.Commands) != 0 || len(m.Aliases) != 0 {
		t.Errorf("expected empty manifest, got %+v", m)
	}
}

func TestLoadManifestInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "commands.yaml")
	if err := os.WriteFile(path, []byte("commands: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("got %v, want ErrInvalidManifest", err)
	}
}

func TestParseManifestRequiresExec(t *testing.T) {
	t.Parallel()

	_, err := ParseManifest([]byte("commands:\n  - name: /x\n"))
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("got %v, want ErrInvalidManifest", err)
	}
}

func TestManifestApply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	var (
		gotDir  string
		gotName string
		gotArgs []string
	)
	run := func(_ context.Context, d, name string, args ...string) (string, error) {
		gotDir, gotName, gotArgs = d, name, args
		return "linted\n", nil
	}

	reg, notices := newTestRegistry(t)
	if err := m.Apply(reg, run); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("Validate after Apply: %v", err)
	}

	cmd, ok := reg.Lookup("/lint-docs")
	if !ok {
		t.Fatal("/lint-docs not registered")
	}
	if cmd.Category != "quality" || cmd.Usage != "/lint-docs [path]" {
		t.Errorf("metadata: got %+v", cmd)
	}

	res := reg.Dispatch(context.Background(), "/lint docs --fix")
	if !res.Success {
		t.Fatalf("Dispatch: %s", res.Error)
	}
	if res.Output != "linted" {
		t.Errorf("Output: got %v", res.Output)
	}
	if gotDir != dir || gotName != "node" {
		t.Errorf("run target: dir %q name %q", gotDir, gotName)
	}
	wantArgs := []string{"scripts/lint-docs.js", "--quiet", "docs", "--fix"}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Errorf("args: got %v, want %v", gotArgs, wantArgs)
	}
	if len(*notices) != 1 {
		t.Errorf("deprecation notices: got %d, want 1", len(*notices))
	}
}

func TestManifestExecFailure(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	run := func(context.Context, string, string, ...string) (string, error) {
		return "SyntaxError: unexpected token\n", errors.New("exit status 1")
	}

	reg, _ := newTestRegistry(t)
	if err := m.Apply(reg, run); err != nil {
		t.Fatal(err)
	}
	res := reg.Dispatch(context.Background(), "/lint-docs")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "SyntaxError") {
		t.Errorf("error should include program output, got %q", res.Error)
	}
}

func TestManifestApplyConflict(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	reg, _ := newTestRegistry(t)
	_ = reg.Register("/lint-docs", Config{Handler: noopHandler})

	if err := m.Apply(reg, nil); !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("got %v, want ErrDuplicateCommand", err)
	}
}

func TestManifestSetWorkDir(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	m.SetWorkDir(root)
	m.SetWorkDir("")

	var gotDir string
	run := func(_ context.Context, d, _ string, _ ...string) (string, error) {
		gotDir = d
		return "", nil
	}
	reg, _ := newTestRegistry(t)
	if err := m.Apply(reg, run); err != nil {
		t.Fatal(err)
	}
	if res := reg.Dispatch(context.Background(), "/lint-docs"); !res.Success {
		t.Fatalf("Dispatch: %s", res.Error)
	}
	if gotDir != root {
		t.Errorf("work dir: got %q, want %q", gotDir, root)
	}
}
