package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/mcpserver"
	"github.com/modu-ai/moai-dispatch/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command registry as an MCP server over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
dispatch, list_commands and describe_command tools. Logs and deprecation
warnings go to stderr so the protocol stream stays clean.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}
	s := mcpserver.New(deps.Registry, version.GetVersion(),
		mcpserver.WithObserver(deps.record),
	)
	deps.Logger.Info("mcp server starting", "commands", len(deps.Registry.Commands()))
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
