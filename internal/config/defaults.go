package config

import (
	"path/filepath"

	"github.com/modu-ai/moai-dispatch/internal/command"
	"github.com/modu-ai/moai-dispatch/internal/defs"
)

// Default value constants to avoid magic numbers and strings.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	DefaultHistoryRetention = 1000
	DefaultHistoryLimit     = 20

	DefaultBackupKeep = 10
)

// NewDefaultConfig returns a Config with all fields set to compiled defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Dispatcher: NewDefaultDispatcherConfig(),
		History:    NewDefaultHistoryConfig(),
		Backup:     NewDefaultBackupConfig(),
		Structure:  NewDefaultStructureConfig(),
		System:     NewDefaultSystemConfig(),
	}
}

// NewDefaultDispatcherConfig returns the default dispatcher section.
func NewDefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Prefix:      command.DefaultPrefix,
		HelpCommand: command.DefaultHelpCommand,
		Manifest:    filepath.Join(defs.MoAIDir, defs.ConfigSubdir, defs.ManifestYAML),
		Spinner:     true,
	}
}

// NewDefaultHistoryConfig returns the default history section.
func NewDefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:      true,
		Path:         filepath.Join(defs.MoAIDir, defs.StateSubdir, defs.HistoryDB),
		Retention:    DefaultHistoryRetention,
		DefaultLimit: DefaultHistoryLimit,
	}
}

// NewDefaultBackupConfig returns the default backup section.
func NewDefaultBackupConfig() BackupConfig {
	return BackupConfig{
		Dir:     defs.BackupsDir,
		Sources: []string{filepath.Join(defs.MoAIDir, defs.ConfigSubdir)},
		Keep:    DefaultBackupKeep,
	}
}

// NewDefaultStructureConfig returns the default structure section.
func NewDefaultStructureConfig() StructureConfig {
	return StructureConfig{UseDefaults: true}
}

// NewDefaultSystemConfig returns the default system section.
func NewDefaultSystemConfig() SystemConfig {
	return SystemConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}
