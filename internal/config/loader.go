package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/modu-ai/moai-dispatch/internal/defs"
)

// Loader reads configuration from YAML section files.
// It is thread-safe via sync.RWMutex.
type Loader struct {
	mu             sync.RWMutex
	loadedSections map[string]bool
}

// NewLoader creates a new Loader instance.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads all configuration section files from the given .moai directory
// and returns a merged Config with defaults applied for missing fields.
// Missing files use default values. Invalid YAML files are skipped with a warning.
func (l *Loader) Load(configDir string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadedSections = make(map[string]bool)
	cfg := NewDefaultConfig()

	sectionsDir := filepath.Join(filepath.Clean(configDir), filepath.FromSlash(defs.SectionsSubdir))

	if _, err := os.Stat(sectionsDir); os.IsNotExist(err) {
		slog.Debug("config sections directory not found, using defaults", "path", sectionsDir)
		return cfg, nil
	}

	l.loadDispatcherSection(sectionsDir, cfg)
	l.loadHistorySection(sectionsDir, cfg)
	l.loadBackupSection(sectionsDir, cfg)
	l.loadStructureSection(sectionsDir, cfg)
	l.loadSystemSection(sectionsDir, cfg)

	return cfg, nil
}

// LoadedSections returns a copy of the map indicating which sections
// were successfully loaded from YAML files.
func (l *Loader) LoadedSections() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]bool, len(l.loadedSections))
	maps.Copy(result, l.loadedSections)
	return result
}

func (l *Loader) loadDispatcherSection(dir string, cfg *Config) {
	wrapper := &dispatcherFileWrapper{Dispatcher: cfg.Dispatcher}
	loaded, err := loadYAMLFile(dir, defs.DispatcherYAML, wrapper)
	if err != nil {
		slog.Warn("failed to load dispatcher config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.Dispatcher = wrapper.Dispatcher
		l.loadedSections["dispatcher"] = true
	}
}

func (l *Loader) loadHistorySection(dir string, cfg *Config) {
	wrapper := &historyFileWrapper{History: cfg.History}
	loaded, err := loadYAMLFile(dir, defs.HistoryYAML, wrapper)
	if err != nil {
		slog.Warn("failed to load history config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.History = wrapper.History
		l.loadedSections["history"] = true
	}
}

// loadBackupSection loads backup.yaml. A sources list in the file replaces
// the default list rather than extending it.
func (l *Loader) loadBackupSection(dir string, cfg *Config) {
	wrapper := &backupFileWrapper{Backup: cfg.Backup}
	wrapper.Backup.Sources = nil
	loaded, err := loadYAMLFile(dir, defs.BackupYAML, wrapper)
	if err != nil {
		slog.Warn("failed to load backup config, using defaults", "error", err)
		return
	}
	if loaded {
		if wrapper.Backup.Sources == nil {
			wrapper.Backup.Sources = cfg.Backup.Sources
		}
		cfg.Backup = wrapper.Backup
		l.loadedSections["backup"] = true
	}
}

func (l *Loader) loadStructureSection(dir string, cfg *Config) {
	wrapper := &structureFileWrapper{Structure: cfg.Structure}
	loaded, err := loadYAMLFile(dir, defs.StructureYAML, wrapper)
	if err != nil {
		slog.Warn("failed to load structure config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.Structure = wrapper.Structure
		l.loadedSections["structure"] = true
	}
}

func (l *Loader) loadSystemSection(dir string, cfg *Config) {
	wrapper := &systemFileWrapper{System: cfg.System}
	loaded, err := loadYAMLFile(dir, defs.SystemYAML, wrapper)
	if err != nil {
		slog.Warn("failed to load system config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.System = wrapper.System
		l.loadedSections["system"] = true
	}
}

// loadYAMLFile reads a YAML file from the given directory and unmarshals it
// into the target struct. Returns (true, nil) if the file was found and parsed,
// (false, nil) if the file does not exist, or (false, error) on failure.
func loadYAMLFile(dir, filename string, target any) (bool, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("parse %s: %w", filename, ErrInvalidYAML)
	}

	return true, nil
}
