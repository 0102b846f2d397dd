// Package mcpserver exposes the command registry as MCP tools so agents can
// list and dispatch commands over stdio.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

// Name is the MCP server name reported during initialization.
const Name = "moai-dispatch"

// Observer is called after every dispatch made through the server.
type Observer func(ctx context.Context, line string, res *command.Result)

// Option configures New.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver registers a callback run after each dispatch tool call.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// New creates the MCP server with the dispatch, list_commands and
// describe_command tools registered against reg.
func New(reg *command.Registry, version string, opts ...Option) *server.MCPServer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions(reg)),
	)

	dispatchTool := NewDispatchTool(reg, o.observer)
	s.AddTool(dispatchTool.Definition(), dispatchTool.Handle)

	listTool := NewListTool(reg)
	s.AddTool(listTool.Definition(), listTool.Handle)

	describeTool := NewDescribeTool(reg)
	s.AddTool(describeTool.Definition(), describeTool.Handle)

	return s
}

// ServeStdio serves s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func instructions(reg *command.Registry) string {
	return "Run project slash commands. Call list_commands to see what is available, " +
		"describe_command for usage, then dispatch with a full command line such as '" +
		reg.HelpCommand() + "'."
}
