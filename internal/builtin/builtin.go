// Package builtin registers the commands every dispatcher ships with.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/config"
	"github.com/modu-ai/moai-dispatch/internal/history"
)

// ErrHistoryDisabled is returned by /history when no store is configured.
var ErrHistoryDisabled = errors.New("builtin: dispatch history is disabled")

// ErrBackupUnavailable is returned by /backup when no service is configured.
var ErrBackupUnavailable = errors.New("builtin: backup service is not configured")

// MarkdownRenderer turns markdown into terminal output. *ui.Markdown
// satisfies it.
type MarkdownRenderer interface {
	Render(md string) (string, error)
}

// HistoryReader lists recorded dispatches. *history.Store satisfies it.
type HistoryReader interface {
	Recent(ctx context.Context, q history.Query) ([]history.Entry, error)
}

// Snapshotter creates and prunes backups. *backup.Service satisfies it.
type Snapshotter interface {
	Create(ctx context.Context) (string, error)
	Prune(keep int) (int, error)
}

// Deps are the collaborators the built-in handlers use. Nil History or
// Backup disables the matching command's work; the commands stay
// registered and report why they cannot run.
type Deps struct {
	Config   *config.ConfigManager
	Root     string
	Markdown MarkdownRenderer
	History  HistoryReader
	Backup   Snapshotter
	Now      func() time.Time
}

// Default aliases registered alongside the built-ins.
var defaultAliases = []command.Alias{
	{Name: "?", Target: "help"},
	{Name: "ver", Target: "status", Deprecation: "%sver is deprecated, use %sstatus"},
}

// RegisterAll registers every built-in command and the default aliases on
// reg. Names are built from the registry prefix.
func RegisterAll(reg *command.Registry, deps Deps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	p := reg.Prefix()

	specs := []struct {
		name string
		cfg  command.Config
	}{
		{"help", helpConfig(reg, deps)},
		{"status", statusConfig(reg, deps)},
		{"validate", validateConfig(deps)},
		{"date", dateConfig(deps)},
		{"history", historyConfig(deps)},
		{"backup", backupConfig(deps)},
	}
	for _, s := range specs {
		s.cfg.Usage = p + s.cfg.Usage
		for i, ex := range s.cfg.Examples {
			s.cfg.Examples[i] = p + ex
		}
		if err := reg.Register(p+s.name, s.cfg); err != nil {
			return fmt.Errorf("register built-in %s: %w", s.name, err)
		}
	}

	for _, a := range defaultAliases {
		msg := ""
		if a.Deprecation != "" {
			msg = fmt.Sprintf(a.Deprecation, p, p)
		}
		if err := reg.RegisterAlias(p+a.Name, p+a.Target, msg); err != nil {
			return fmt.Errorf("register built-in alias %s: %w", a.Name, err)
		}
	}
	return nil
}
