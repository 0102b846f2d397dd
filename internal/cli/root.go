package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/pkg/version"
)

// Global flag values.
var (
	projectFlag  string
	logLevelFlag string
	noColorFlag  bool
	manifestFlag string
)

var rootCmd = &cobra.Command{
	Use:   "moai-dispatch",
	Short: "Slash-command dispatcher for MoAI projects",
	Long: `moai-dispatch resolves slash commands such as /help or /status, runs their
handlers and reports the outcome.

Commands come from the built-in set and from the project manifest
(.moai/config/commands.yaml). Aliases, deprecation notices, pre-dispatch
backups and dispatch history are configured under .moai/config/sections/.`,
	Version:           version.GetVersion(),
	SilenceUsage:      true,
	PersistentPreRunE: initDeps,
}

// @MX:ANCHOR: [AUTO] Execute is the main entry point for the moai-dispatch CLI
// @MX:REASON: [AUTO] fan_in=2, called from cmd/moai-dispatch/main.go and root_test.go
// Execute runs the root command and releases dependencies afterwards.
func Execute() error {
	defer func() {
		deps.Close()
		deps = nil
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("moai-dispatch %s\n", version.GetVersion()))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&projectFlag, "project", "", "project root (default: nearest directory containing .moai)")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	pf.StringVar(&manifestFlag, "manifest", "", "command manifest path (overrides dispatcher.manifest)")
}

// initDeps wires dependencies before any subcommand that needs them.
// Commands annotated with skipDeps run without a project.
func initDeps(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipDepsAnnotation] == "true" {
		return nil
	}
	if deps != nil {
		return nil
	}
	d, err := InitDependencies(Options{
		Project:  projectFlag,
		LogLevel: logLevelFlag,
		NoColor:  noColorFlag || os.Getenv("NO_COLOR") != "",
		Manifest: manifestFlag,
		Stderr:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	deps = d
	return nil
}

const skipDepsAnnotation = "moai-dispatch/skip-deps"
