package command

import (
	"context"
	"time"
)

const (
	// DefaultPrefix is the marker every command name must start with.
	DefaultPrefix = "/"

	// DefaultHelpCommand is referenced by unknown-command messages.
	DefaultHelpCommand = "/help"

	// DefaultCategory files commands registered without a category.
	DefaultCategory = "general"
)

// Handler runs a dispatched command. It receives the positional arguments,
// the parsed long-form options and the resolved command record.
type Handler func(ctx context.Context, args []string, opts Options, cmd *Command) (any, error)

// Config describes a command at registration time.
type Config struct {
	Description    string
	Handler        Handler
	Category       string
	Usage          string
	Examples       []string
	RequiresBackup bool
	Options        map[string]any
}

// Command is a registered command record. Records are created by Register
// and must not be modified afterwards.
type Command struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Usage          string         `json:"usage,omitempty"`
	Examples       []string       `json:"examples,omitempty"`
	RequiresBackup bool           `json:"requires_backup,omitempty"`
	Options        map[string]any `json:"options,omitempty"`

	handler Handler
}

// Alias maps an alternate token onto a command name.
type Alias struct {
	Name        string `json:"alias"`
	Target      string `json:"target"`
	Deprecation string `json:"deprecation,omitempty"`
}

// CategoryGroup is one entry of ListByCategory.
type CategoryGroup struct {
	Category string     `json:"category"`
	Commands []*Command `json:"commands"`
}

// Result is the outcome of a Dispatch call. Dispatch never panics or
// returns an error; every failure is folded into a Result.
type Result struct {
	Success  bool          `json:"success"`
	Command  string        `json:"command,omitempty"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Trace    string        `json:"trace,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	// Err carries the typed error for errors.Is / errors.As.
	Err error `json:"-"`
}

// DeprecationNotifier receives a notice each time a deprecated alias resolves.
type DeprecationNotifier func(alias, target, message string)

// Backuper takes a snapshot before a command flagged RequiresBackup runs.
// It is satisfied by *backup.Service.
type Backuper interface {
	Create(ctx context.Context) (string, error)
}
