package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/modu-ai/moai-dispatch/internal/defs"
)

// managerState represents the lifecycle state of the ConfigManager.
type managerState int

const (
	stateUninitialized managerState = iota
	stateInitialized
	stateWatching
)

// @MX:ANCHOR: [AUTO] ConfigManager is the single entry point for configuration access.
// @MX:REASON: fan_in=6+, the CLI composition root and every built-in read through it
// ConfigManager provides thread-safe configuration management.
// It must be initialized via Load() before use.
type ConfigManager struct {
	mu             sync.RWMutex
	config         *Config
	root           string
	state          managerState
	loader         *Loader
	callbacks      []func(Config)
	loadedSections map[string]bool
}

// NewConfigManager creates a new ConfigManager instance in uninitialized state.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		loader: NewLoader(),
		state:  stateUninitialized,
	}
}

// Load reads configuration from the project root's .moai/ directory.
// It merges file values with compiled defaults and applies environment
// variable overrides. The configuration is validated before being stored.
func (m *ConfigManager) Load(projectRoot string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, loaded, err := m.read(projectRoot)
	if err != nil {
		return nil, err
	}

	m.config = cfg
	m.loadedSections = loaded
	m.root = projectRoot
	m.state = stateInitialized

	return cfg, nil
}

// read loads, overrides and validates without touching manager state.
func (m *ConfigManager) read(projectRoot string) (*Config, map[string]bool, error) {
	cfg, err := m.loader.Load(configDir(projectRoot))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	loaded := m.loader.LoadedSections()

	// Environment variables have higher priority than files.
	applyEnvOverrides(cfg)

	if err := Validate(cfg, loaded); err != nil {
		return nil, nil, err
	}
	return cfg, loaded, nil
}

// configDir returns the .moai directory, honoring MOAI_CONFIG_DIR.
func configDir(projectRoot string) string {
	if envDir := os.Getenv("MOAI_CONFIG_DIR"); envDir != "" {
		return filepath.Clean(envDir)
	}
	return filepath.Join(filepath.Clean(projectRoot), defs.MoAIDir)
}

// Get returns the current in-memory configuration.
// Returns nil if the manager has not been initialized via Load().
func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Root returns the project root passed to Load.
func (m *ConfigManager) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// LoadedSections reports which sections came from files on the last load.
func (m *ConfigManager) LoadedSections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, name := range sectionNames {
		if m.loadedSections[name] {
			out = append(out, name)
		}
	}
	return out
}

// GetSection returns a named configuration section.
// Returns ErrNotInitialized if Load() has not been called.
// Returns ErrSectionNotFound if the section name is invalid.
func (m *ConfigManager) GetSection(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == stateUninitialized {
		return nil, ErrNotInitialized
	}

	switch name {
	case "dispatcher":
		return m.config.Dispatcher, nil
	case "history":
		return m.config.History, nil
	case "backup":
		return m.config.Backup, nil
	case "structure":
		return m.config.Structure, nil
	case "system":
		return m.config.System, nil
	default:
		return nil, ErrSectionNotFound
	}
}

// SetSection updates a named configuration section in memory.
// Returns ErrSectionTypeMismatch if the value type does not match.
func (m *ConfigManager) SetSection(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	mismatch := func(want string) error {
		return fmt.Errorf("%w: expected %s for section %q", ErrSectionTypeMismatch, want, name)
	}

	switch name {
	case "dispatcher":
		v, ok := value.(DispatcherConfig)
		if !ok {
			return mismatch("DispatcherConfig")
		}
		m.config.Dispatcher = v
	case "history":
		v, ok := value.(HistoryConfig)
		if !ok {
			return mismatch("HistoryConfig")
		}
		m.config.History = v
	case "backup":
		v, ok := value.(BackupConfig)
		if !ok {
			return mismatch("BackupConfig")
		}
		m.config.Backup = v
	case "structure":
		v, ok := value.(StructureConfig)
		if !ok {
			return mismatch("StructureConfig")
		}
		m.config.Structure = v
	case "system":
		v, ok := value.(SystemConfig)
		if !ok {
			return mismatch("SystemConfig")
		}
		m.config.System = v
	default:
		return ErrSectionNotFound
	}
	return nil
}

// Save persists the current configuration to disk atomically.
// Each section is saved to its corresponding YAML file using
// temp file + os.Rename for atomic writes.
func (m *ConfigManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	sectionsDir := filepath.Join(configDir(m.root), filepath.FromSlash(defs.SectionsSubdir))
	if err := os.MkdirAll(sectionsDir, defs.DirPerm); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	sections := []struct {
		file string
		data any
	}{
		{defs.DispatcherYAML, dispatcherFileWrapper{Dispatcher: m.config.Dispatcher}},
		{defs.HistoryYAML, historyFileWrapper{History: m.config.History}},
		{defs.BackupYAML, backupFileWrapper{Backup: m.config.Backup}},
		{defs.StructureYAML, structureFileWrapper{Structure: m.config.Structure}},
		{defs.SystemYAML, systemFileWrapper{System: m.config.System}},
	}
	for _, s := range sections {
		if err := saveSection(sectionsDir, s.file, s.data); err != nil {
			return fmt.Errorf("save %s: %w", strings.TrimSuffix(s.file, ".yaml"), err)
		}
	}
	return nil
}

// Reload forces a re-read from disk, replacing the in-memory configuration.
// On validation failure the previous configuration is kept.
func (m *ConfigManager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	cfg, loaded, err := m.read(m.root)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	m.config = cfg
	m.loadedSections = loaded

	for _, cb := range m.callbacks {
		cb(*m.config)
	}
	return nil
}

// Watch registers a callback to be invoked when configuration is reloaded.
func (m *ConfigManager) Watch(callback func(Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	m.callbacks = append(m.callbacks, callback)
	m.state = stateWatching
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if prefix := os.Getenv("MOAI_DISPATCH_PREFIX"); prefix != "" {
		cfg.Dispatcher.Prefix = prefix
	}
	if level := os.Getenv("MOAI_LOG_LEVEL"); level != "" {
		cfg.System.LogLevel = level
	}
	if format := os.Getenv("MOAI_LOG_FORMAT"); format != "" {
		cfg.System.LogFormat = format
	}
	if noColor := os.Getenv("MOAI_NO_COLOR"); noColor == "true" || noColor == "1" {
		cfg.System.NoColor = true
	}
}

// saveSection marshals data to YAML and writes it atomically.
func saveSection(dir, filename string, data any) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}
	return atomicWrite(filepath.Join(dir, filename), yamlData)
}

// atomicWrite writes data to a file atomically using temp file + os.Rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".moai-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // cleanup on error path

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmpName, path)
}
