package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

var batchStopOnError bool

var batchCmd = &cobra.Command{
	Use:   "batch <file|->",
	Short: "Dispatch every command line in a script",
	Long: `Dispatch the command lines of a script file in order, with a progress bar.

Blank lines and lines starting with # are skipped. Use - to read the script
from stdin. Output of successful commands is printed once the batch is done;
the exit status is non-zero if any line failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchStopOnError, "stop-on-error", false, "stop at the first failing line")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}

	lines, err := readScript(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(errOut, deps.Theme.SuccessCard("Nothing to dispatch"))
		return nil
	}

	bar := deps.Progress.Start("Dispatching", len(lines))
	results := make([]*command.Result, 0, len(lines))
	for _, line := range lines {
		bar.SetTitle(line)
		res := dispatchLine(cmd.Context(), deps, line)
		results = append(results, res)
		bar.Increment(1)
		if !res.Success && batchStopOnError {
			break
		}
	}
	bar.Done()

	var failed []string
	for i, res := range results {
		printResult(out, errOut, deps, res)
		if !res.Success {
			failed = append(failed, fmt.Sprintf("%s: %s", lines[i], firstLine(res.Error)))
		}
	}

	skipped := len(lines) - len(results)
	if len(failed) == 0 {
		_, _ = fmt.Fprintln(errOut, deps.Theme.SuccessCard(
			fmt.Sprintf("%d commands dispatched", len(results))))
		return nil
	}

	details := failed
	if skipped > 0 {
		details = append(details, "", fmt.Sprintf("%d lines skipped after the first failure", skipped))
	}
	_, _ = fmt.Fprintln(errOut, deps.Theme.ErrorCard(
		fmt.Sprintf("%d of %d commands failed", len(failed), len(results)), details...))

	cmd.SilenceErrors = true
	return fmt.Errorf("%w: %d of %d lines failed", ErrDispatchFailed, len(failed), len(results))
}

// readScript returns the non-blank, non-comment lines of path ("-" for r).
func readScript(r io.Reader, path string) ([]string, error) {
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return lines, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
