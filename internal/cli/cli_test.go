package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modu-ai/moai-dispatch/internal/builtin"
	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/structure"
)

// newProject creates a project root with a .moai directory and the given
// files (path -> content).
func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".moai", "config", "sections"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// useDeps wires dependencies for root into the package global and resets
// every flag the commands read.
func useDeps(t *testing.T, root string) (*Dependencies, *bytes.Buffer) {
	t.Helper()
	stderr := new(bytes.Buffer)
	d, err := InitDependencies(Options{Project: root, NoColor: true, Stderr: stderr})
	if err != nil {
		t.Fatalf("InitDependencies: %v", err)
	}
	d.Headless.ForceHeadless(true)

	origDeps := deps
	deps = d
	resetFlags()
	t.Cleanup(func() {
		d.Close()
		deps = origDeps
		resetFlags()
	})
	return d, stderr
}

func resetFlags() {
	projectFlag, logLevelFlag, manifestFlag = "", "", ""
	noColorFlag = false
	runJSON, listJSON, versionJSON = false, false, false
	batchStopOnError, validateStrict = false, false
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func historyCount(t *testing.T, d *Dependencies) int {
	t.Helper()
	if d.History == nil {
		t.Fatal("history store not opened")
	}
	n, err := d.History.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"run", "list", "shell", "batch", "validate", "serve", "version"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("%s should be registered as a subcommand of root", name)
		}
	}
}

func TestRunCmd_Success(t *testing.T) {
	d, _ := useDeps(t, newProject(t, nil))

	out, _, err := execute(t, "", "run", "/status", "--verbose")
	if err != nil {
		t.Fatalf("run /status: %v", err)
	}
	if !strings.Contains(out, "prefix:       /") || !strings.Contains(out, "log level:") {
		t.Errorf("unexpected status output:\n%s", out)
	}
	if got := historyCount(t, d); got != 1 {
		t.Errorf("history entries: got %d, want 1", got)
	}
}

func TestRunCmd_JSON(t *testing.T) {
	useDeps(t, newProject(t, nil))

	out, _, err := execute(t, "", "run", "--json", "/date", "--format", "compact")
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Success bool   `json:"success"`
		Command string `json:"command"`
		Output  string `json:"output"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !res.Success || res.Command != "/date" || len(res.Output) != len("20060102_150405") {
		t.Errorf("result: got %+v", res)
	}
}

func TestRunCmd_UnknownCommand(t *testing.T) {
	d, _ := useDeps(t, newProject(t, nil))

	out, errOut, err := execute(t, "", "run", "/nope")
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("got %v, want ErrDispatchFailed", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty, got %q", out)
	}
	for _, want := range []string{"Unknown command", `unknown command "/nope"`, "/help"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
	if strings.Contains(errOut, "Error:") {
		t.Errorf("cobra should not print the error a second time:\n%s", errOut)
	}
	if got := historyCount(t, d); got != 1 {
		t.Errorf("failed dispatches are recorded too: got %d", got)
	}
}

func TestRunCmd_DeprecatedAlias(t *testing.T) {
	_, warnings := useDeps(t, newProject(t, nil))

	out, _, err := execute(t, "", "run", "/ver")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version:") {
		t.Errorf("alias should run /status, got:\n%s", out)
	}
	if !strings.Contains(warnings.String(), "/ver is deprecated, use /status") {
		t.Errorf("missing deprecation warning, stderr:\n%s", warnings.String())
	}
}

func TestListCmd(t *testing.T) {
	root := newProject(t, map[string]string{
		".moai/config/commands.yaml": "aliases:\n  - alias: /s\n    target: /status\n",
	})
	useDeps(t, root)

	out, _, err := execute(t, "", "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"general", "/help", "/status", "quality", "/validate", "aliases", "/s", "(deprecated)"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var listing struct {
		Categories []command.CategoryGroup `json:"categories"`
		Aliases    []command.Alias         `json:"aliases"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if listing.Categories[0].Category != "general" {
		t.Errorf("first category: got %q", listing.Categories[0].Category)
	}
	found := false
	for _, a := range listing.Aliases {
		if a.Name == "/s" && a.Target == "/status" {
			found = true
		}
	}
	if !found {
		t.Errorf("manifest alias missing from %+v", listing.Aliases)
	}
}

func TestShellCmd(t *testing.T) {
	d, _ := useDeps(t, newProject(t, nil))

	script := "/date --format iso\n\n# comment\n/nope\nexit\n/status\n"
	out, errOut, err := execute(t, script, "shell")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(out, "T") {
		t.Errorf("expected ISO date on stdout, got %q", out)
	}
	if !strings.Contains(errOut, `unknown command "/nope"`) {
		t.Errorf("expected unknown command on stderr, got %q", errOut)
	}
	if strings.Contains(out, "version:") {
		t.Error("lines after exit must not run")
	}
	if got := historyCount(t, d); got != 2 {
		t.Errorf("history entries: got %d, want 2", got)
	}
}

func TestShellCmd_EOF(t *testing.T) {
	useDeps(t, newProject(t, nil))

	if _, _, err := execute(t, "/date\n", "shell"); err != nil {
		t.Fatalf("EOF should end the session cleanly: %v", err)
	}
}

func TestBatchCmd(t *testing.T) {
	root := newProject(t, map[string]string{
		"script.txt": "# nightly\n/date --format compact\n\n/nope\n/status\n",
	})
	d, progress := useDeps(t, root)

	out, errOut, err := execute(t, "", "batch", filepath.Join(root, "script.txt"))
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("got %v, want ErrDispatchFailed", err)
	}
	if !strings.Contains(out, "version:") {
		t.Errorf("lines after a failure still run by default:\n%s", out)
	}
	for _, want := range []string{"1 of 3 commands failed", "/nope"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
	if !strings.Contains(progress.String(), "[3/3] /status") {
		t.Errorf("missing headless progress lines:\n%s", progress.String())
	}
	if got := historyCount(t, d); got != 3 {
		t.Errorf("history entries: got %d, want 3", got)
	}
}

func TestBatchCmd_StopOnError(t *testing.T) {
	useDeps(t, newProject(t, nil))

	out, errOut, err := execute(t, "/nope\n/status\n", "batch", "--stop-on-error", "-")
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("got %v, want ErrDispatchFailed", err)
	}
	if strings.Contains(out, "version:") {
		t.Error("/status must not run after the first failure")
	}
	if !strings.Contains(errOut, "1 lines skipped") {
		t.Errorf("missing skipped note:\n%s", errOut)
	}
}

func TestBatchCmd_AllSucceed(t *testing.T) {
	useDeps(t, newProject(t, nil))

	_, errOut, err := execute(t, "/date\n/help\n", "batch", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "2 commands dispatched") {
		t.Errorf("missing summary:\n%s", errOut)
	}
}

func TestValidateCmd(t *testing.T) {
	valid := newProject(t, map[string]string{"CLAUDE.md": "# project\n"})
	useDeps(t, valid)

	out, _, err := execute(t, "", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Structure valid") {
		t.Errorf("unexpected output:\n%s", out)
	}

	invalid := newProject(t, map[string]string{"docs/readme.md": ""})
	useDeps(t, invalid)

	_, errOut, err := execute(t, "", "validate")
	if !errors.Is(err, builtin.ErrStructureViolations) {
		t.Fatalf("got %v, want ErrStructureViolations", err)
	}
	if !strings.Contains(errOut, "CLAUDE.md") {
		t.Errorf("missing violation detail:\n%s", errOut)
	}
}

func TestValidateCmd_MissingPath(t *testing.T) {
	useDeps(t, newProject(t, map[string]string{"CLAUDE.md": ""}))

	_, errOut, err := execute(t, "", "validate", "typo-dir")
	if !errors.Is(err, structure.ErrInvalidRoot) {
		t.Fatalf("got %v, want ErrInvalidRoot", err)
	}
	if strings.Contains(errOut, "CLAUDE.md must exist") {
		t.Errorf("a missing path must not be reported as a missing CLAUDE.md:\n%s", errOut)
	}
}

func TestVersionCmd(t *testing.T) {
	resetFlags()
	orig := deps
	deps = nil
	defer func() { deps = orig }()

	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "moai-dispatch ") {
		t.Errorf("unexpected output %q", out)
	}
	if deps != nil {
		t.Error("version must not initialize dependencies")
	}
}
