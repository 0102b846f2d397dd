package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

// DispatchTool handles the dispatch MCP tool.
type DispatchTool struct {
	reg      *command.Registry
	observer Observer
}

// NewDispatchTool creates a DispatchTool. observer may be nil.
func NewDispatchTool(reg *command.Registry, observer Observer) *DispatchTool {
	return &DispatchTool{reg: reg, observer: observer}
}

// Definition returns the MCP tool definition for registration.
func (t *DispatchTool) Definition() mcp.Tool {
	return mcp.NewTool("dispatch",
		mcp.WithDescription(
			"Run a slash command line and return the dispatch result as JSON "+
				"(success, command, output, error, duration_ns).",
		),
		mcp.WithString("command_line",
			mcp.Required(),
			mcp.Description("Full command line, e.g. '/status --verbose'"),
		),
	)
}

// Handle processes the dispatch tool call. A failed dispatch is reported
// as a tool error result carrying the same JSON body.
func (t *DispatchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line := strings.TrimSpace(req.GetString("command_line", ""))
	if line == "" {
		return mcp.NewToolResultError("'command_line' is required"), nil
	}

	res := t.reg.Dispatch(ctx, line)
	if t.observer != nil {
		t.observer(ctx, line, res)
	}

	body, err := marshal(res)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return mcp.NewToolResultError(body), nil
	}
	return mcp.NewToolResultText(body), nil
}

// ListTool handles the list_commands MCP tool.
type ListTool struct {
	reg *command.Registry
}

// NewListTool creates a ListTool.
func NewListTool(reg *command.Registry) *ListTool {
	return &ListTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("list_commands",
		mcp.WithDescription("List registered commands grouped by category, plus aliases."),
		mcp.WithString("category",
			mcp.Description("Only return this category"),
		),
	)
}

type listing struct {
	Categories []command.CategoryGroup `json:"categories"`
	Aliases    []command.Alias         `json:"aliases,omitempty"`
}

// Handle processes the list_commands tool call.
func (t *ListTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := strings.TrimSpace(req.GetString("category", ""))

	out := listing{Aliases: t.reg.Aliases()}
	for _, g := range t.reg.ListByCategory() {
		if category == "" || g.Category == category {
			out.Categories = append(out.Categories, g)
		}
	}
	if category != "" && len(out.Categories) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
	}

	body, err := marshal(out)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(body), nil
}

// DescribeTool handles the describe_command MCP tool.
type DescribeTool struct {
	reg *command.Registry
}

// NewDescribeTool creates a DescribeTool.
func NewDescribeTool(reg *command.Registry) *DescribeTool {
	return &DescribeTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *DescribeTool) Definition() mcp.Tool {
	return mcp.NewTool("describe_command",
		mcp.WithDescription("Show one command's description, usage, examples and aliases."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Command name with or without the prefix"),
		),
	)
}

type description struct {
	*command.Command
	Aliases []command.Alias `json:"aliases,omitempty"`
}

// Handle processes the describe_command tool call.
func (t *DescribeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	if !strings.HasPrefix(name, t.reg.Prefix()) {
		name = t.reg.Prefix() + name
	}

	cmd, ok := t.reg.Lookup(name)
	if !ok {
		err := &command.UnknownCommandError{Token: name, HelpCommand: t.reg.HelpCommand()}
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := marshal(description{Command: cmd, Aliases: t.reg.AliasesFor(cmd.Name)})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(body), nil
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return string(data), nil
}
