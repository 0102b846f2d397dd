package builtin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/structure"
)

// ErrStructureViolations is wrapped by /validate when the tree fails.
var ErrStructureViolations = errors.New("builtin: structure violations found")

// ValidationOutput is the output of /validate.
type ValidationOutput struct {
	*structure.Report
	Strict bool `json:"strict"`
}

// String renders one line per violation followed by a summary.
func (v ValidationOutput) String() string {
	return FormatReport(v.Report, v.Strict)
}

// FormatReport renders a structure report as plain text.
func FormatReport(r *structure.Report, strict bool) string {
	var b strings.Builder
	for _, vi := range r.Violations {
		fmt.Fprintf(&b, "%-7s %s: %s", vi.Severity, vi.Path, vi.Message)
		if vi.Suggestion != "" {
			fmt.Fprintf(&b, " (suggest %s)", vi.Suggestion)
		}
		b.WriteString("\n")
	}
	status := "ok"
	if !r.Valid(strict) {
		status = "failed"
	}
	fmt.Fprintf(&b, "%s: %d file(s) checked, %d error(s), %d warning(s)",
		status, r.Checked, r.Errors(), r.Warnings())
	return b.String()
}

// RunStructureValidation validates target (relative to root unless
// absolute) with the configured rules.
func RunStructureValidation(deps Deps, target string) (*structure.Report, error) {
	rules := structure.DefaultRules()
	var ignore []string
	if deps.Config != nil {
		if cfg := deps.Config.Get(); cfg != nil {
			rules = cfg.Structure.EffectiveRules()
			ignore = cfg.Structure.Ignore
		}
	}

	v, err := structure.NewValidator(rules, ignore)
	if err != nil {
		return nil, err
	}

	if target == "" {
		target = deps.Root
	} else if !filepath.IsAbs(target) {
		target = filepath.Join(deps.Root, target)
	}
	return v.Validate(target)
}

func validateConfig(deps Deps) command.Config {
	return command.Config{
		Description: "Check file naming and layout rules",
		Category:    "quality",
		Usage:       "validate [path] [--strict]",
		Examples:    []string{"validate", "validate .claude --strict"},
		Handler: func(_ context.Context, args []string, opts command.Options, _ *command.Command) (any, error) {
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			report, err := RunStructureValidation(deps, target)
			if err != nil {
				return nil, err
			}
			out := ValidationOutput{Report: report, Strict: opts.Bool("strict", false)}
			if !report.Valid(out.Strict) {
				return nil, fmt.Errorf("%w\n%s", ErrStructureViolations, out.String())
			}
			return out, nil
		},
	}
}
