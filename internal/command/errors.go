// Package command implements the slash-command registry and dispatcher.
// It maps command tokens to handlers, resolves aliases (with optional
// deprecation notices), groups commands by category, and converts handler
// failures into structured results so a bad handler never takes down the
// host process.
package command

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and dispatch operations.
var (
	// ErrInvalidName indicates a command name without the required prefix.
	ErrInvalidName = errors.New("command: invalid command name")

	// ErrDuplicateCommand indicates a command name that is already registered.
	ErrDuplicateCommand = errors.New("command: command already registered")

	// ErrNilHandler indicates a registration without a handler function.
	ErrNilHandler = errors.New("command: handler is nil")

	// ErrInvalidAlias indicates an empty or malformed alias token.
	ErrInvalidAlias = errors.New("command: invalid alias")

	// ErrAliasConflict indicates an alias that collides with a command name
	// or with another alias.
	ErrAliasConflict = errors.New("command: alias conflicts with existing entry")

	// ErrDanglingAlias indicates an alias whose target is not registered.
	ErrDanglingAlias = errors.New("command: alias target not registered")

	// ErrUnknownCommand indicates a token that resolves to no command.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrEmptyCommandLine indicates a dispatch call with nothing to run.
	ErrEmptyCommandLine = errors.New("command: empty command line")

	// ErrHandlerFailed indicates a handler returned an error or panicked.
	ErrHandlerFailed = errors.New("command: handler failed")

	// ErrBackupFailed indicates the pre-dispatch backup could not be taken.
	ErrBackupFailed = errors.New("command: backup failed")
)

// ConfigurationError reports a registration-time problem. It is fatal to
// the registration call only.
type ConfigurationError struct {
	Name    string
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %q: %s", e.Name, e.Message)
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigurationError) Unwrap() error {
	return e.Wrapped
}

// UnknownCommandError reports a token that could not be resolved, either
// directly or through an alias.
type UnknownCommandError struct {
	Token       string
	Target      string // non-empty when Token is an alias with a dangling target
	HelpCommand string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("unknown command %q (alias target %q is not registered). Run %s to see available commands.",
			e.Token, e.Target, e.HelpCommand)
	}
	return fmt.Sprintf("unknown command %q. Run %s to see available commands.", e.Token, e.HelpCommand)
}

// Unwrap exposes ErrUnknownCommand, plus ErrDanglingAlias for broken aliases.
func (e *UnknownCommandError) Unwrap() []error {
	if e.Target != "" {
		return []error{ErrUnknownCommand, ErrDanglingAlias}
	}
	return []error{ErrUnknownCommand}
}

// HandlerError wraps any failure raised while running a resolved handler.
type HandlerError struct {
	Command string
	Message string
	Trace   string // stack trace, populated for panics
	Wrapped error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Unwrap returns ErrHandlerFailed together with the original cause.
func (e *HandlerError) Unwrap() []error {
	if e.Wrapped != nil {
		return []error{ErrHandlerFailed, e.Wrapped}
	}
	return []error{ErrHandlerFailed}
}
