package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/ui"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Read and dispatch commands interactively",
	Long: `Start an interactive session that dispatches one command line at a time.

Type exit or quit, press Ctrl-C, or close stdin to leave. When stdin is not
a terminal the lines are read from it in order, which makes shell usable in
pipelines:

  printf '/status\n/date --format iso\n' | moai-dispatch shell`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	prompt := ui.NewLinePrompt(deps.Theme, deps.Headless, cmd.InOrStdin())
	label := fmt.Sprintf("Command (%s for a list, exit to quit)", deps.Registry.HelpCommand())

	var ran, failed int
	for {
		line, err := prompt.ReadLine(ctx, label)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ui.ErrCancelled) {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		res := dispatchWithSpinner(ctx, deps, line)
		printResult(out, errOut, deps, res)
		ran++
		if !res.Success {
			failed++
		}
	}

	deps.Logger.Debug("shell session ended", "dispatched", ran, "failed", failed)
	return nil
}
