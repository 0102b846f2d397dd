package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

func newTestRegistry(t *testing.T) *command.Registry {
	t.Helper()
	reg := command.New(command.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.Register("/status", command.Config{
		Description: "Show status",
		Category:    "general",
		Usage:       "/status [--verbose]",
		Handler: func(_ context.Context, _ []string, opts command.Options, _ *command.Command) (any, error) {
			if opts.Bool("verbose", false) {
				return "status: verbose", nil
			}
			return "status: ok", nil
		},
	}))
	must(reg.Register("/broken", command.Config{
		Description: "Always fails",
		Category:    "debug",
		Handler: func(context.Context, []string, command.Options, *command.Command) (any, error) {
			return nil, errors.New("boom")
		},
	}))
	must(reg.RegisterAlias("/st", "/status", ""))
	return reg
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if r == nil {
		t.Fatal("nil result")
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

func TestDispatchToolDefinition(t *testing.T) {
	t.Parallel()

	def := NewDispatchTool(newTestRegistry(t), nil).Definition()
	if def.Name != "dispatch" {
		t.Errorf("Name: got %q", def.Name)
	}
	if _, ok := def.InputSchema.Properties["command_line"]; !ok {
		t.Error("missing command_line property")
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "command_line" {
		t.Errorf("Required: got %v", def.InputSchema.Required)
	}
}

func TestDispatchToolSuccess(t *testing.T) {
	t.Parallel()

	var observed []string
	tool := NewDispatchTool(newTestRegistry(t), func(_ context.Context, line string, res *command.Result) {
		observed = append(observed, line)
		if !res.Success {
			t.Errorf("observer saw failure: %s", res.Error)
		}
	})

	r, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"command_line": "/st --verbose",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if r.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, r))
	}

	var got struct {
		Success bool   `json:"success"`
		Command string `json:"command"`
		Output  string `json:"output"`
	}
	if err := json.Unmarshal([]byte(resultText(t, r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success || got.Command != "/status" || got.Output != "status: verbose" {
		t.Errorf("result: got %+v", got)
	}
	if len(observed) != 1 || observed[0] != "/st --verbose" {
		t.Errorf("observer: got %v", observed)
	}
}

func TestDispatchToolFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{"missing argument", "", "'command_line' is required"},
		{"unknown command", "/nope", `unknown command "/nope"`},
		{"handler error", "/broken", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tool := NewDispatchTool(newTestRegistry(t), nil)
			r, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
				"command_line": tt.line,
			}))
			if err != nil {
				t.Fatal(err)
			}
			if !r.IsError {
				t.Fatal("expected error result")
			}
			if text := resultText(t, r); !strings.Contains(text, tt.want) {
				t.Errorf("got %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestListTool(t *testing.T) {
	t.Parallel()

	tool := NewListTool(newTestRegistry(t))

	r, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	var got listing
	if err := json.Unmarshal([]byte(resultText(t, r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Categories) != 2 || got.Categories[0].Category != "general" || got.Categories[1].Category != "debug" {
		t.Errorf("categories: got %+v", got.Categories)
	}
	if len(got.Aliases) != 1 || got.Aliases[0].Name != "/st" {
		t.Errorf("aliases: got %+v", got.Aliases)
	}

	r, err = tool.Handle(context.Background(), callRequest(map[string]interface{}{"category": "debug"}))
	if err != nil {
		t.Fatal(err)
	}
	got = listing{}
	if err := json.Unmarshal([]byte(resultText(t, r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Categories) != 1 || got.Categories[0].Commands[0].Name != "/broken" {
		t.Errorf("filtered: got %+v", got.Categories)
	}

	r, err = tool.Handle(context.Background(), callRequest(map[string]interface{}{"category": "missing"}))
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("unknown category should be an error result")
	}
}

func TestDescribeTool(t *testing.T) {
	t.Parallel()

	tool := NewDescribeTool(newTestRegistry(t))

	for _, name := range []string{"/status", "status"} {
		r, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{"name": name}))
		if err != nil {
			t.Fatal(err)
		}
		text := resultText(t, r)
		if r.IsError {
			t.Fatalf("%s: unexpected error %s", name, text)
		}
		for _, want := range []string{`"usage": "/status [--verbose]"`, `"alias": "/st"`} {
			if !strings.Contains(text, want) {
				t.Errorf("%s: missing %s in %s", name, want, text)
			}
		}
	}

	r, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{"name": "/st"}))
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("aliases are not commands; expected error result")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if s := New(newTestRegistry(t), "v0.0.0-test"); s == nil {
		t.Fatal("New returned nil")
	}
}
