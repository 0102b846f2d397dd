package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered commands by category",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}
	out := cmd.OutOrStdout()
	groups := deps.Registry.ListByCategory()

	if listJSON {
		data, err := json.MarshalIndent(struct {
			Categories []command.CategoryGroup `json:"categories"`
			Aliases    []command.Alias         `json:"aliases,omitempty"`
		}{groups, deps.Registry.Aliases()}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode listing: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	for _, g := range groups {
		_, _ = fmt.Fprintln(out, deps.Theme.Card(g.Category, formatGroup(g.Commands)))
	}
	if aliases := deps.Registry.Aliases(); len(aliases) > 0 {
		_, _ = fmt.Fprintln(out, deps.Theme.Card("aliases", formatAliases(aliases)))
	}
	return nil
}

func formatGroup(cmds []*command.Command) string {
	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name))
	}
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		line := fmt.Sprintf("%-*s  %s", width, c.Name, c.Description)
		if c.RequiresBackup {
			line += " " + deps.Theme.Muted("(backup)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatAliases(aliases []command.Alias) string {
	width := 0
	for _, a := range aliases {
		width = max(width, len(a.Name))
	}
	lines := make([]string, 0, len(aliases))
	for _, a := range aliases {
		line := fmt.Sprintf("%-*s  -> %s", width, a.Name, a.Target)
		if a.Deprecation != "" {
			line += " " + deps.Theme.Muted("(deprecated)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
