package builtin

import (
	"context"
	"fmt"

	"github.com/modu-ai/moai-dispatch/internal/command"
)

// BackupOutput is the output of /backup.
type BackupOutput struct {
	Path   string `json:"path"`
	Pruned int    `json:"pruned"`
}

// String renders the snapshot path and prune count.
func (b BackupOutput) String() string {
	s := "backup created: " + b.Path
	if b.Pruned > 0 {
		s += fmt.Sprintf(" (%d old backup(s) removed)", b.Pruned)
	}
	return s
}

func backupConfig(deps Deps) command.Config {
	return command.Config{
		Description: "Snapshot project configuration into .moai-backups",
		Category:    "maintenance",
		Usage:       "backup [--prune N]",
		Examples:    []string{"backup", "backup --prune 5"},
		Handler: func(ctx context.Context, _ []string, opts command.Options, _ *command.Command) (any, error) {
			if deps.Backup == nil {
				return nil, ErrBackupUnavailable
			}
			keep := -1
			if opts.Has("prune") {
				if keep = opts.Int("prune", -1); keep < 0 {
					return nil, fmt.Errorf("--prune needs a non-negative count, got %v", opts["prune"])
				}
			}

			path, err := deps.Backup.Create(ctx)
			if err != nil {
				return nil, err
			}
			out := BackupOutput{Path: path}
			if keep >= 0 {
				if out.Pruned, err = deps.Backup.Prune(keep); err != nil {
					return nil, err
				}
			}
			return out, nil
		},
	}
}
