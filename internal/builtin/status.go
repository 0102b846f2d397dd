package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/pkg/version"
)

// StatusReport is the output of /status.
type StatusReport struct {
	Version        string   `json:"version"`
	ProjectRoot    string   `json:"project_root"`
	Prefix         string   `json:"prefix"`
	Commands       int      `json:"commands"`
	Aliases        int      `json:"aliases"`
	Categories     []string `json:"categories"`
	LogLevel       string   `json:"log_level,omitempty"`
	HistoryEnabled bool     `json:"history_enabled"`
	LoadedSections []string `json:"loaded_sections,omitempty"`
}

// String renders the report as aligned key/value lines.
func (s StatusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version:      %s\n", s.Version)
	fmt.Fprintf(&b, "project:      %s\n", s.ProjectRoot)
	fmt.Fprintf(&b, "prefix:       %s\n", s.Prefix)
	fmt.Fprintf(&b, "commands:     %d\n", s.Commands)
	fmt.Fprintf(&b, "aliases:      %d\n", s.Aliases)
	fmt.Fprintf(&b, "categories:   %s\n", strings.Join(s.Categories, ", "))
	fmt.Fprintf(&b, "history:      %t\n", s.HistoryEnabled)
	if s.LogLevel != "" {
		fmt.Fprintf(&b, "log level:    %s\n", s.LogLevel)
	}
	if len(s.LoadedSections) > 0 {
		fmt.Fprintf(&b, "config files: %s\n", strings.Join(s.LoadedSections, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func statusConfig(reg *command.Registry, deps Deps) command.Config {
	return command.Config{
		Description: "Show version, project and registry summary",
		Category:    command.DefaultCategory,
		Usage:       "status [--verbose]",
		Examples:    []string{"status", "status --verbose"},
		Handler: func(_ context.Context, _ []string, opts command.Options, _ *command.Command) (any, error) {
			report := StatusReport{
				Version:        version.GetVersion(),
				ProjectRoot:    deps.Root,
				Prefix:         reg.Prefix(),
				Commands:       len(reg.Commands()),
				Aliases:        len(reg.Aliases()),
				HistoryEnabled: deps.History != nil,
			}
			for _, g := range reg.ListByCategory() {
				report.Categories = append(report.Categories, g.Category)
			}
			if opts.Bool("verbose", false) && deps.Config != nil {
				if cfg := deps.Config.Get(); cfg != nil {
					report.LogLevel = cfg.System.LogLevel
				}
				report.LoadedSections = deps.Config.LoadedSections()
			}
			return report, nil
		},
	}
}
