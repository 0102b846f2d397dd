// Package defs holds directory names, file names and permissions shared
// across packages.
package defs

import "os"

// Directory layout relative to the project root.
const (
	// MoAIDir is the per-project state and configuration directory.
	MoAIDir = ".moai"

	// ConfigSubdir holds configuration under MoAIDir.
	ConfigSubdir = "config"

	// SectionsSubdir holds the YAML section files under MoAIDir.
	SectionsSubdir = "config/sections"

	// StateSubdir holds runtime state (history database) under MoAIDir.
	StateSubdir = "state"

	// BackupsDir holds timestamped backups at the project root.
	BackupsDir = ".moai-backups"
)

// Common file names.
const (
	// ManifestYAML declares project commands and aliases, under MoAIDir/ConfigSubdir.
	ManifestYAML = "commands.yaml"

	// HistoryDB is the dispatch history database, under StateSubdir.
	HistoryDB = "dispatch.db"

	// BackupMetadataJSON describes a backup snapshot.
	BackupMetadataJSON = "backup.json"

	// ClaudeMD is the root execution directive file.
	ClaudeMD = "CLAUDE.md"
)

// Section YAML file names under .moai/config/sections/.
const (
	DispatcherYAML = "dispatcher.yaml"
	HistoryYAML    = "history.yaml"
	BackupYAML     = "backup.yaml"
	StructureYAML  = "structure.yaml"
	SystemYAML     = "system.yaml"
)

// BackupTimestampFormat names backup directories (YYYYMMDD_HHMMSS).
const BackupTimestampFormat = "20060102_150405"

// File permissions.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)
