// Package structure checks project file paths against naming conventions.
// Rules select files with glob patterns and require a naming convention,
// the presence of at least one match, or the absence of any match.
package structure

import "errors"

// ErrInvalidRule indicates a rule that cannot be compiled.
var ErrInvalidRule = errors.New("structure: invalid rule")

// ErrInvalidRoot indicates a validation root that is missing or not a directory.
var ErrInvalidRoot = errors.New("structure: invalid root")

// Convention names a file naming style.
type Convention string

const (
	KebabCase  Convention = "kebab-case"
	SnakeCase  Convention = "snake_case"
	CamelCase  Convention = "camelCase"
	PascalCase Convention = "PascalCase"
	UpperCase  Convention = "UPPER_CASE"
	AnyCase    Convention = "any"
)

// IsValid reports whether c is a known convention. Empty means AnyCase.
func (c Convention) IsValid() bool {
	switch c {
	case "", KebabCase, SnakeCase, CamelCase, PascalCase, UpperCase, AnyCase:
		return true
	}
	return false
}

// Severity classifies a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule selects files by Pattern and constrains them.
//
// Patterns without a slash match the file's base name. Patterns with a
// slash match the slash-separated path relative to the root, where "**"
// matches any number of directories.
type Rule struct {
	Name       string     `yaml:"name"`
	Pattern    string     `yaml:"pattern"`
	Convention Convention `yaml:"convention"`
	Severity   Severity   `yaml:"severity"`
	Required   bool       `yaml:"required"`
	Forbidden  bool       `yaml:"forbidden"`
	Message    string     `yaml:"message"`
}

// ViolationType describes what a rule found.
type ViolationType string

const (
	ViolationNaming    ViolationType = "naming"
	ViolationMissing   ViolationType = "missing"
	ViolationForbidden ViolationType = "forbidden"
)

// Violation is a single rule failure.
type Violation struct {
	Type       ViolationType `json:"type"`
	Rule       string        `json:"rule"`
	Severity   Severity      `json:"severity"`
	Path       string        `json:"path"`
	Expected   string        `json:"expected,omitempty"`
	Actual     string        `json:"actual,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Report is the result of validating a tree.
type Report struct {
	Root       string      `json:"root"`
	Checked    int         `json:"checked"`
	Violations []Violation `json:"violations"`
}

// Errors counts error-severity violations.
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings counts warning-severity violations.
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// Valid reports whether the report passes. In strict mode warnings fail too.
func (r *Report) Valid(strict bool) bool {
	if strict {
		return len(r.Violations) == 0
	}
	return r.Errors() == 0
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == s {
			n++
		}
	}
	return n
}
