package builtin

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/defs"
)

// dateLayouts maps --format values to time layouts.
var dateLayouts = map[string]string{
	"iso":     time.RFC3339,
	"date":    time.DateOnly,
	"time":    time.TimeOnly,
	"compact": defs.BackupTimestampFormat,
	"korean":  "2006년 01월 02일 15시 04분",
}

// FormatDate formats t with a named layout.
func FormatDate(t time.Time, format string) (string, error) {
	layout, ok := dateLayouts[format]
	if !ok {
		return "", fmt.Errorf("unknown date format %q (use one of: %s)", format, strings.Join(DateFormats(), ", "))
	}
	return t.Format(layout), nil
}

// DateFormats returns the accepted --format values, sorted.
func DateFormats() []string {
	names := make([]string, 0, len(dateLayouts))
	for k := range dateLayouts {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func dateConfig(deps Deps) command.Config {
	return command.Config{
		Description: "Print the current date and time",
		Category:    "utility",
		Usage:       "date [--format iso|date|time|compact|korean] [--utc]",
		Examples:    []string{"date", "date --format korean", "date --format compact --utc"},
		Handler: func(_ context.Context, _ []string, opts command.Options, _ *command.Command) (any, error) {
			now := deps.Now()
			if opts.Bool("utc", false) {
				now = now.UTC()
			}
			return FormatDate(now, opts.String("format", "iso"))
		},
	}
}
