// Package cli provides the Cobra command tree and dependency wiring for the
// moai-dispatch binary. This file defines the Dependencies struct
// (Composition Root) that wires the registry, built-ins, history and
// backups together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modu-ai/moai-dispatch/internal/backup"
	"github.com/modu-ai/moai-dispatch/internal/builtin"
	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/config"
	"github.com/modu-ai/moai-dispatch/internal/defs"
	"github.com/modu-ai/moai-dispatch/internal/history"
	"github.com/modu-ai/moai-dispatch/internal/ui"
)

// Dependencies holds every service the CLI commands use. It is the only
// place where concrete types are instantiated and wired together.
type Dependencies struct {
	Root     string
	Config   *config.ConfigManager
	Registry *command.Registry
	History  *history.Store
	Backup   *backup.Service
	Theme    *ui.Theme
	Headless *ui.HeadlessManager
	Markdown *ui.Markdown
	Progress ui.Progress
	Logger   *slog.Logger

	// Stderr receives deprecation warnings, progress and error cards.
	Stderr io.Writer
}

// Options carries the global flag values into InitDependencies.
type Options struct {
	Project  string
	LogLevel string
	NoColor  bool
	Manifest string
	Stderr   io.Writer
}

// deps is the global dependencies instance, initialized by the root
// command's PersistentPreRunE.
var deps *Dependencies

// GetDeps returns the current Dependencies instance, or nil before startup.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the global dependencies (used for testing).
func SetDeps(d *Dependencies) {
	deps = d
}

// @MX:ANCHOR: [AUTO] InitDependencies is the Composition Root that wires all domain modules
// @MX:REASON: [AUTO] fan_in=3, called from root.go PersistentPreRunE, deps_test.go and the cli command tests
// InitDependencies loads configuration, builds the registry with the
// built-in and manifest commands, validates aliases and opens history.
func InitDependencies(opts Options) (*Dependencies, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	root, err := resolveProjectRoot(opts.Project)
	if err != nil {
		return nil, err
	}

	mgr := config.NewConfigManager()
	cfg, err := mgr.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.System.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := newLogger(stderr, level, cfg.System.LogFormat)
	if err != nil {
		return nil, err
	}

	noColor := opts.NoColor || cfg.System.NoColor
	theme := ui.NewTheme(noColor)
	hm := ui.NewHeadlessManager()
	if cfg.System.NonInteractive {
		hm.ForceHeadless(true)
	}

	d := &Dependencies{
		Root:     root,
		Config:   mgr,
		Theme:    theme,
		Headless: hm,
		Markdown: ui.NewMarkdown(theme, hm),
		Progress: ui.NewProgress(theme, hm, stderr),
		Logger:   logger,
		Stderr:   stderr,
	}

	d.Backup = backup.New(root, cfg.Backup.Dir, cfg.Backup.Sources,
		backup.WithKeep(cfg.Backup.Keep),
		backup.WithLogger(logger),
	)

	d.Registry = command.New(
		command.WithPrefix(cfg.Dispatcher.Prefix),
		command.WithHelpCommand(cfg.Dispatcher.HelpCommand),
		command.WithBackup(d.Backup),
		command.WithLogger(logger),
		command.WithDeprecationNotifier(d.notifyDeprecation),
	)

	if cfg.History.Enabled {
		store, err := history.Open(d.abs(cfg.History.Path),
			history.WithRetention(cfg.History.Retention),
			history.WithLogger(logger),
		)
		if err != nil {
			// History is auxiliary; dispatch keeps working without it.
			logger.Warn("dispatch history unavailable", "path", cfg.History.Path, "error", err)
		} else {
			d.History = store
		}
	}

	bdeps := builtin.Deps{
		Config:   mgr,
		Root:     root,
		Markdown: d.Markdown,
		Backup:   d.Backup,
	}
	if d.History != nil {
		bdeps.History = d.History
	}
	if err := builtin.RegisterAll(d.Registry, bdeps); err != nil {
		d.Close()
		return nil, fmt.Errorf("register built-in commands: %w", err)
	}

	manifestPath := cfg.Dispatcher.Manifest
	if opts.Manifest != "" {
		manifestPath = opts.Manifest
	}
	if manifestPath != "" {
		m, err := command.LoadManifest(d.abs(manifestPath))
		if err != nil {
			d.Close()
			return nil, err
		}
		m.SetWorkDir(root)
		if err := m.Apply(d.Registry, nil); err != nil {
			d.Close()
			return nil, err
		}
	}

	if err := d.Registry.Validate(); err != nil {
		d.Close()
		return nil, fmt.Errorf("validate command registry: %w", err)
	}

	logger.Debug("dependencies initialized",
		"root", root,
		"commands", len(d.Registry.Commands()),
		"aliases", len(d.Registry.Aliases()),
		"history", d.History != nil,
	)
	return d, nil
}

// Close releases the history database.
func (d *Dependencies) Close() {
	if d == nil || d.History == nil {
		return
	}
	if err := d.History.Close(); err != nil {
		d.Logger.Warn("close history", "error", err)
	}
	d.History = nil
}

// notifyDeprecation is the registry's deprecation notifier. It keeps the
// structured log entry and adds a visible warning line.
func (d *Dependencies) notifyDeprecation(alias, target, message string) {
	d.Logger.Warn("deprecated command alias", "alias", alias, "target", target)
	_, _ = fmt.Fprintf(d.Stderr, "%s %s\n", d.Theme.SymWarning(), message)
}

// abs resolves p against the project root.
func (d *Dependencies) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}

// record stores a dispatch in history. Failures are logged, never fatal.
func (d *Dependencies) record(ctx context.Context, line string, res *command.Result) {
	if d.History == nil {
		return
	}
	_, err := d.History.Record(ctx, history.Entry{
		Line:     line,
		Command:  res.Command,
		Success:  res.Success,
		Error:    res.Error,
		Duration: res.Duration,
	})
	if err != nil && !errors.Is(err, history.ErrClosed) {
		d.Logger.Warn("record dispatch history", "error", err)
	}
}

// resolveProjectRoot returns explicit when set, otherwise the nearest
// ancestor of the working directory that contains .moai, falling back to
// the working directory itself.
func resolveProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("resolve project root: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("resolve project root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("resolve project root: %s is not a directory", abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return findProjectRoot(cwd), nil
}

func findProjectRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, defs.MoAIDir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// newLogger builds the stderr logger from the system section.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
