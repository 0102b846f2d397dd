package structure

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// defaultIgnore lists directory names that are never descended into.
var defaultIgnore = []string{".git", "node_modules", ".moai-backups", "vendor"}

// Validator checks paths against a compiled rule set.
type Validator struct {
	rules  []Rule
	ignore []string
	logger *slog.Logger
}

// NewValidator validates rules and returns a Validator. Rules with an empty
// severity default to error; rules with an empty name are named after their
// pattern. ignore adds directory names (or base-name globs) to skip.
func NewValidator(rules []Rule, ignore []string) (*Validator, error) {
	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !validPattern(r.Pattern) {
			return nil, fmt.Errorf("%w: rule %d (%s): bad pattern %q", ErrInvalidRule, i, r.Name, r.Pattern)
		}
		if !r.Convention.IsValid() {
			return nil, fmt.Errorf("%w: rule %d (%s): unknown convention %q", ErrInvalidRule, i, r.Name, r.Convention)
		}
		if r.Required && r.Forbidden {
			return nil, fmt.Errorf("%w: rule %d (%s): cannot be both required and forbidden", ErrInvalidRule, i, r.Name)
		}
		switch r.Severity {
		case "":
			r.Severity = SeverityError
		case SeverityError, SeverityWarning:
		default:
			return nil, fmt.Errorf("%w: rule %d (%s): unknown severity %q", ErrInvalidRule, i, r.Name, r.Severity)
		}
		if r.Name == "" {
			r.Name = r.Pattern
		}
		compiled = append(compiled, r)
	}

	return &Validator{
		rules:  compiled,
		ignore: append(slices.Clone(defaultIgnore), ignore...),
		logger: slog.Default().With("module", "structure"),
	}, nil
}

// Rules returns the compiled rules.
func (v *Validator) Rules() []Rule {
	return slices.Clone(v.rules)
}

// CheckPath returns naming and forbidden-file violations for a single
// slash-separated relative path. Required rules are not evaluated here
// because they need the whole tree.
func (v *Validator) CheckPath(rel string) []Violation {
	rel = norm.NFC.String(filepath.ToSlash(rel))
	base := path.Base(rel)

	var out []Violation
	for _, r := range v.rules {
		if !matchPattern(r.Pattern, rel) {
			continue
		}
		if r.Forbidden {
			out = append(out, Violation{
				Type:     ViolationForbidden,
				Rule:     r.Name,
				Severity: r.Severity,
				Path:     rel,
				Actual:   base,
				Message:  messageOr(r.Message, "file is not allowed here"),
			})
			continue
		}
		if r.Convention == "" || r.Convention == AnyCase {
			continue
		}
		if !Matches(base, r.Convention) {
			out = append(out, Violation{
				Type:       ViolationNaming,
				Rule:       r.Name,
				Severity:   r.Severity,
				Path:       rel,
				Expected:   string(r.Convention),
				Actual:     base,
				Suggestion: path.Join(path.Dir(rel), Suggest(base, r.Convention)),
				Message:    messageOr(r.Message, fmt.Sprintf("file name must be %s", r.Convention)),
			})
		}
	}
	return out
}

// Validate walks root and applies every rule to every regular file.
func (v *Validator) Validate(root string) (*Report, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	report := &Report{Root: root}
	// Counts are per rule position; rule names need not be unique.
	matched := make([]int, len(v.rules))

	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			v.logger.Debug("skipping unreadable entry", "path", p, "error", err)
			return nil
		}
		if entry.IsDir() {
			if p != root && v.ignored(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = norm.NFC.String(filepath.ToSlash(rel))
		report.Checked++

		for i, r := range v.rules {
			if matchPattern(r.Pattern, rel) {
				matched[i]++
			}
		}
		report.Violations = append(report.Violations, v.CheckPath(rel)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	for i, r := range v.rules {
		if r.Required && matched[i] == 0 {
			report.Violations = append(report.Violations, Violation{
				Type:     ViolationMissing,
				Rule:     r.Name,
				Severity: r.Severity,
				Path:     r.Pattern,
				Expected: "at least one file matching " + r.Pattern,
				Message:  messageOr(r.Message, "required file is missing"),
			})
		}
	}

	v.logger.Debug("structure validated",
		"root", root,
		"checked", report.Checked,
		"violations", len(report.Violations),
	)
	return report, nil
}

func (v *Validator) ignored(name string) bool {
	for _, pattern := range v.ignore {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func messageOr(msg, def string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return def
}
