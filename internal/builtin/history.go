package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/history"
)

// HistoryOutput is the output of /history.
type HistoryOutput struct {
	Entries []history.Entry `json:"entries"`
}

// String renders one line per entry, newest first.
func (h HistoryOutput) String() string {
	if len(h.Entries) == 0 {
		return "no dispatches recorded"
	}
	var b strings.Builder
	for i, e := range h.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		mark := "ok  "
		if !e.Success {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "%s  %s  %-30s %s",
			e.CreatedAt.Local().Format(time.DateTime), mark, e.Line, e.Duration.Round(time.Millisecond))
		if e.Error != "" {
			fmt.Fprintf(&b, "  %s", firstLine(e.Error))
		}
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func historyConfig(deps Deps) command.Config {
	limit := history.DefaultLimit
	if deps.Config != nil {
		if cfg := deps.Config.Get(); cfg != nil && cfg.History.DefaultLimit > 0 {
			limit = cfg.History.DefaultLimit
		}
	}

	return command.Config{
		Description: "Show recently dispatched commands",
		Category:    "utility",
		Usage:       "history [command] [--limit N] [--failed]",
		Examples:    []string{"history", "history --failed --limit 5"},
		Handler: func(ctx context.Context, args []string, opts command.Options, _ *command.Command) (any, error) {
			if deps.History == nil {
				return nil, ErrHistoryDisabled
			}
			q := history.Query{
				Limit:      opts.Int("limit", limit),
				FailedOnly: opts.Bool("failed", false),
			}
			if len(args) > 0 {
				q.Command = args[0]
			}
			entries, err := deps.History.Recent(ctx, q)
			if err != nil {
				return nil, err
			}
			return HistoryOutput{Entries: entries}, nil
		},
	}
}
