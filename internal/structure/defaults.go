package structure

// DefaultRules mirrors the layout of an agent workspace: markdown agents,
// commands and skills in kebab-case, YAML config sections in kebab-case,
// a root CLAUDE.md, and no leftover temp files.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "agent-files",
			Pattern:    ".claude/agents/**/*.md",
			Convention: KebabCase,
			Severity:   SeverityError,
		},
		{
			Name:       "command-files",
			Pattern:    ".claude/commands/**/*.md",
			Convention: KebabCase,
			Severity:   SeverityError,
		},
		{
			Name:       "skill-dirs",
			Pattern:    ".claude/skills/*/SKILL.md",
			Convention: AnyCase,
			Severity:   SeverityWarning,
		},
		{
			Name:       "hook-scripts",
			Pattern:    ".claude/hooks/**/*.sh",
			Convention: KebabCase,
			Severity:   SeverityWarning,
		},
		{
			Name:       "config-sections",
			Pattern:    ".moai/config/sections/*.yaml",
			Convention: KebabCase,
			Severity:   SeverityError,
		},
		{
			Name:     "claude-md",
			Pattern:  "/CLAUDE.md",
			Required: true,
			Severity: SeverityError,
			Message:  "CLAUDE.md must exist at the project root",
		},
		{
			Name:      "temp-files",
			Pattern:   "*.tmp",
			Forbidden: true,
			Severity:  SeverityWarning,
			Message:   "temporary file left in the tree",
		},
	}
}
