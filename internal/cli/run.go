package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

// ErrDispatchFailed is returned by commands whose dispatch did not succeed.
// The failure has already been printed when it is returned.
var ErrDispatchFailed = errors.New("cli: dispatch failed")

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Dispatch one slash command",
	Long: `Dispatch a single command line and print its output.

Everything after the command name is passed to the handler, so handler
options need no quoting:

  moai-dispatch run /status --verbose
  moai-dispatch run /history --limit 5 --failed

The exit status is non-zero when the command is unknown or its handler
fails; the error is printed to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the dispatch result as JSON")
	// Flags after the command name belong to the handler.
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}
	line := strings.Join(args, " ")
	res := dispatchWithSpinner(cmd.Context(), deps, line)

	if runJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), deps, res)
	}

	if !res.Success {
		cmd.SilenceErrors = true
		return fmt.Errorf("%w: %s", ErrDispatchFailed, res.Error)
	}
	return nil
}

// dispatchWithSpinner is dispatchLine with a spinner shown while the
// handler runs, when dispatcher.spinner is enabled.
func dispatchWithSpinner(ctx context.Context, d *Dependencies, line string) *command.Result {
	if cfg := d.Config.Get(); cfg != nil && cfg.Dispatcher.Spinner {
		sp := d.Progress.Spinner("Running " + firstField(line))
		defer sp.Stop()
	}
	return dispatchLine(ctx, d, line)
}

// dispatchLine runs line through the registry and records the outcome in
// history.
func dispatchLine(ctx context.Context, d *Dependencies, line string) *command.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	res := d.Registry.Dispatch(ctx, line)
	if res.Trace != "" {
		d.Logger.Debug("handler panic trace", "command", res.Command, "trace", res.Trace)
	}
	d.record(ctx, line, res)
	return res
}

// printResult writes successful output to stdout and failures as an error
// card on stderr.
func printResult(stdout, stderr io.Writer, d *Dependencies, res *command.Result) {
	if res.Success {
		if text := formatOutput(res.Output); text != "" {
			_, _ = fmt.Fprintln(stdout, text)
		}
		return
	}

	title := "Command failed"
	if errors.Is(res.Err, command.ErrUnknownCommand) {
		title = "Unknown command"
	} else if res.Command != "" {
		title = res.Command + " failed"
	}
	_, _ = fmt.Fprintln(stderr, d.Theme.ErrorCard(title, strings.Split(res.Error, "\n")...))
}

// formatOutput renders handler output: strings verbatim, Stringers via
// String and anything else as indented JSON.
func formatOutput(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", out)
	}
	return string(data)
}

func firstField(line string) string {
	if f := strings.Fields(line); len(f) > 0 {
		return f[0]
	}
	return line
}
