package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

func helpConfig(reg *command.Registry, deps Deps) command.Config {
	return command.Config{
		Description: "List available commands or show details for one",
		Category:    command.DefaultCategory,
		Usage:       "help [command]",
		Examples:    []string{"help", "help status"},
		Handler: func(_ context.Context, args []string, _ command.Options, _ *command.Command) (any, error) {
			var md string
			if len(args) == 0 {
				md = HelpMarkdown(reg)
			} else {
				cmd, err := lookupForHelp(reg, args[0])
				if err != nil {
					return nil, err
				}
				md = CommandMarkdown(reg, cmd)
			}
			if deps.Markdown == nil {
				return md, nil
			}
			return deps.Markdown.Render(md)
		},
	}
}

// lookupForHelp finds a command by name, alias, or bare name without the
// prefix. It does not go through Resolve so no deprecation notice fires.
func lookupForHelp(reg *command.Registry, token string) (*command.Command, error) {
	name := token
	if !strings.HasPrefix(name, reg.Prefix()) {
		name = reg.Prefix() + name
	}
	if cmd, ok := reg.Lookup(name); ok {
		return cmd, nil
	}
	for _, a := range reg.Aliases() {
		if a.Name == name {
			if cmd, ok := reg.Lookup(a.Target); ok {
				return cmd, nil
			}
			return nil, &command.UnknownCommandError{Token: name, Target: a.Target, HelpCommand: reg.HelpCommand()}
		}
	}
	return nil, &command.UnknownCommandError{Token: name, HelpCommand: reg.HelpCommand()}
}

// HelpMarkdown renders the category listing as markdown.
func HelpMarkdown(reg *command.Registry) string {
	var b strings.Builder
	b.WriteString("# Commands\n")

	for _, group := range reg.ListByCategory() {
		fmt.Fprintf(&b, "\n## %s\n\n", group.Category)
		b.WriteString("| Command | Description |\n|---------|-------------|\n")
		for _, cmd := range group.Commands {
			fmt.Fprintf(&b, "| `%s` | %s |\n", cmd.Name, escapeCell(cmd.Description))
		}
	}

	if aliases := reg.Aliases(); len(aliases) > 0 {
		b.WriteString("\n## Aliases\n\n")
		for _, a := range aliases {
			line := fmt.Sprintf("- `%s` → `%s`", a.Name, a.Target)
			if a.Deprecation != "" {
				line += " (deprecated)"
			}
			b.WriteString(line + "\n")
		}
	}

	fmt.Fprintf(&b, "\nRun `%s <command>` for details.\n", reg.HelpCommand())
	return b.String()
}

// CommandMarkdown renders one command's usage, examples and aliases.
func CommandMarkdown(reg *command.Registry, cmd *command.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cmd.Name)
	if cmd.Description != "" {
		b.WriteString(cmd.Description + "\n\n")
	}
	fmt.Fprintf(&b, "**Usage:** `%s`\n\n", cmd.Usage)
	fmt.Fprintf(&b, "**Category:** %s\n", cmd.Category)
	if cmd.RequiresBackup {
		b.WriteString("\nA backup snapshot is taken before this command runs.\n")
	}

	if len(cmd.Examples) > 0 {
		b.WriteString("\n## Examples\n\n")
		for _, ex := range cmd.Examples {
			fmt.Fprintf(&b, "- `%s`\n", ex)
		}
	}

	if aliases := reg.AliasesFor(cmd.Name); len(aliases) > 0 {
		b.WriteString("\n## Aliases\n\n")
		for _, a := range aliases {
			if a.Deprecation != "" {
				fmt.Fprintf(&b, "- `%s` (deprecated: %s)\n", a.Name, a.Deprecation)
				continue
			}
			fmt.Fprintf(&b, "- `%s`\n", a.Name)
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
