package config

import (
	"slices"

	"github.com/modu-ai/moai-dispatch/internal/structure"
)

// Config is the root configuration aggregate containing all sections.
type Config struct {
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	History    HistoryConfig    `yaml:"history"`
	Backup     BackupConfig     `yaml:"backup"`
	Structure  StructureConfig  `yaml:"structure"`
	System     SystemConfig     `yaml:"system"`
}

// DispatcherConfig represents the dispatcher section.
type DispatcherConfig struct {
	Prefix      string `yaml:"prefix"`
	HelpCommand string `yaml:"help_command"`
	// Manifest is relative to the project root unless absolute.
	Manifest string `yaml:"manifest"`
	// Spinner shows a spinner on a TTY while a handler runs.
	Spinner bool `yaml:"spinner"`
}

// HistoryConfig represents the dispatch history section.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Retention is the number of rows kept; 0 keeps everything.
	Retention    int `yaml:"retention"`
	DefaultLimit int `yaml:"default_limit"`
}

// BackupConfig represents the backup section.
type BackupConfig struct {
	Dir     string   `yaml:"dir"`
	Sources []string `yaml:"sources"`
	Keep    int      `yaml:"keep"`
}

// StructureConfig represents the structure validator section.
type StructureConfig struct {
	// UseDefaults prepends the built-in rules to Rules.
	UseDefaults bool             `yaml:"use_defaults"`
	Rules       []structure.Rule `yaml:"rules"`
	Ignore      []string         `yaml:"ignore"`
}

// EffectiveRules returns the rules the validator should run with.
func (s StructureConfig) EffectiveRules() []structure.Rule {
	if !s.UseDefaults {
		return slices.Clone(s.Rules)
	}
	return append(structure.DefaultRules(), s.Rules...)
}

// SystemConfig represents the system configuration section.
type SystemConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	NoColor        bool   `yaml:"no_color"`
	NonInteractive bool   `yaml:"non_interactive"`
}

// sectionNames lists every addressable section.
var sectionNames = []string{"dispatcher", "history", "backup", "structure", "system"}

// IsValidSectionName reports whether name is a known section.
func IsValidSectionName(name string) bool {
	return slices.Contains(sectionNames, name)
}

// ValidSectionNames returns all valid section names.
func ValidSectionNames() []string {
	return slices.Clone(sectionNames)
}

// YAML file wrapper types for proper unmarshaling with top-level keys.
// Each section file wraps its content under a top-level key.

type dispatcherFileWrapper struct {
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
}

type historyFileWrapper struct {
	History HistoryConfig `yaml:"history"`
}

type backupFileWrapper struct {
	Backup BackupConfig `yaml:"backup"`
}

type structureFileWrapper struct {
	Structure StructureConfig `yaml:"structure"`
}

type systemFileWrapper struct {
	System SystemConfig `yaml:"system"`
}
