package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Dispatch parses line, resolves the command and runs its handler. It
// always returns a Result: unknown commands, backup failures, handler
// errors and handler panics are all reported through it.
func (r *Registry) Dispatch(ctx context.Context, line string) *Result {
	start := time.Now()

	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		err := fmt.Errorf("%w. Run %s to see available commands", ErrEmptyCommandLine, r.helpCommand)
		return failure("", err, "", start)
	}

	cmd, err := r.Resolve(tokens[0])
	if err != nil {
		r.logger.Debug("dispatch: unresolved command", "token", tokens[0])
		return failure("", err, "", start)
	}

	opts, args := ParseOptions(tokens[1:])

	switch {
	case cmd.RequiresBackup && r.backup == nil:
		r.logger.Warn("command requires backup but no backup service is configured", "command", cmd.Name)
	case cmd.RequiresBackup:
		dir, berr := r.backup.Create(ctx)
		if berr != nil {
			r.logger.Error("pre-dispatch backup failed", "command", cmd.Name, "error", berr.Error())
			herr := &HandlerError{
				Command: cmd.Name,
				Message: fmt.Sprintf("backup failed: %v", berr),
				Wrapped: errors.Join(ErrBackupFailed, berr),
			}
			return failure(cmd.Name, herr, "", start)
		}
		r.logger.Info("pre-dispatch backup created", "command", cmd.Name, "path", dir)
	}

	r.logger.Debug("dispatching command",
		"command", cmd.Name,
		"args", len(args),
		"options", len(opts),
	)

	out, herr := r.invoke(ctx, cmd, args, opts)
	if herr != nil {
		r.logger.Error("handler returned error",
			"command", cmd.Name,
			"error", herr.Message,
		)
		return failure(cmd.Name, herr, herr.Trace, start)
	}

	return &Result{
		Success:  true,
		Command:  cmd.Name,
		Output:   out,
		Duration: time.Since(start),
	}
}

// invoke runs the handler and converts errors and panics into a HandlerError.
func (r *Registry) invoke(ctx context.Context, cmd *Command, args []string, opts Options) (out any, herr *HandlerError) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			herr = &HandlerError{
				Command: cmd.Name,
				Message: fmt.Sprintf("panic: %v", rec),
				Trace:   string(debug.Stack()),
			}
			if err, ok := rec.(error); ok {
				herr.Wrapped = err
			}
		}
	}()

	res, err := cmd.handler(ctx, args, opts, cmd)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "handler failed without a message"
		}
		return nil, &HandlerError{Command: cmd.Name, Message: msg, Wrapped: err}
	}
	return res, nil
}

func failure(name string, err error, trace string, start time.Time) *Result {
	return &Result{
		Success:  false,
		Command:  name,
		Error:    err.Error(),
		Trace:    trace,
		Duration: time.Since(start),
		Err:      err,
	}
}
