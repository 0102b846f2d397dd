package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/modu-ai/moai-dispatch/internal/structure"
)

// Dynamic token patterns that must not appear in configuration values.
// These indicate unexpanded template variables.
var dynamicTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^}]+\}`),        // ${VAR}
	regexp.MustCompile(`\{\{[^}]+\}\}`),      // {{VAR}}
	regexp.MustCompile(`\$[A-Z_][A-Z0-9_]*`), // $VAR
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// @MX:ANCHOR: [AUTO] Validate gates every load and reload of the configuration.
// @MX:REASON: [AUTO] fan_in=3, Load, Reload and the validate command depend on it
// Validate checks the configuration for correctness.
// The loadedSections map indicates which sections were loaded from YAML files.
// Required-field checks only apply to sections that were explicitly loaded.
func Validate(cfg *Config, loadedSections map[string]bool) error {
	var errs []ValidationError

	errs = append(errs, validateDispatcher(&cfg.Dispatcher)...)
	errs = append(errs, validateHistory(&cfg.History, loadedSections["history"])...)
	errs = append(errs, validateBackup(&cfg.Backup)...)
	errs = append(errs, validateStructure(&cfg.Structure)...)
	errs = append(errs, validateSystem(&cfg.System)...)
	errs = append(errs, validateDynamicTokens(cfg)...)

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func validateDispatcher(d *DispatcherConfig) []ValidationError {
	var errs []ValidationError

	if d.Prefix == "" || strings.ContainsFunc(d.Prefix, unicode.IsSpace) {
		errs = append(errs, ValidationError{
			Field:   "dispatcher.prefix",
			Message: "must be non-empty and contain no whitespace",
			Value:   d.Prefix,
			Wrapped: ErrInvalidConfig,
		})
		return errs
	}

	if d.HelpCommand != "" && !strings.HasPrefix(d.HelpCommand, d.Prefix) {
		errs = append(errs, ValidationError{
			Field:   "dispatcher.help_command",
			Message: fmt.Sprintf("must start with the command prefix %q", d.Prefix),
			Value:   d.HelpCommand,
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

func validateHistory(h *HistoryConfig, loaded bool) []ValidationError {
	var errs []ValidationError

	if h.Retention < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retention",
			Message: "must be non-negative",
			Value:   h.Retention,
			Wrapped: ErrInvalidConfig,
		})
	}
	if h.DefaultLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.default_limit",
			Message: "must be non-negative",
			Value:   h.DefaultLimit,
			Wrapped: ErrInvalidConfig,
		})
	}
	if loaded && h.Enabled && h.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "required when history is enabled; set path in .moai/config/sections/history.yaml",
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

func validateBackup(b *BackupConfig) []ValidationError {
	var errs []ValidationError

	if b.Keep < 0 {
		errs = append(errs, ValidationError{
			Field:   "backup.keep",
			Message: "must be non-negative",
			Value:   b.Keep,
			Wrapped: ErrInvalidConfig,
		})
	}
	if b.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "backup.dir",
			Message: "must not be empty",
			Wrapped: ErrInvalidConfig,
		})
	}
	for i, src := range b.Sources {
		if strings.TrimSpace(src) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("backup.sources[%d]", i),
				Message: "must not be empty",
				Wrapped: ErrInvalidConfig,
			})
		}
	}
	return errs
}

// validateStructure compiles the effective rules so bad globs or unknown
// conventions are reported at load time.
func validateStructure(s *StructureConfig) []ValidationError {
	if _, err := structure.NewValidator(s.EffectiveRules(), s.Ignore); err != nil {
		return []ValidationError{{
			Field:   "structure.rules",
			Message: err.Error(),
			Wrapped: ErrInvalidConfig,
		}}
	}
	return nil
}

func validateSystem(s *SystemConfig) []ValidationError {
	var errs []ValidationError

	if s.LogLevel != "" && !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_level",
			Message: "must be one of: " + strings.Join(validLogLevels, ", "),
			Value:   s.LogLevel,
			Wrapped: ErrInvalidLogLevel,
		})
	}
	if s.LogFormat != "" && !slices.Contains(validLogFormats, strings.ToLower(s.LogFormat)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_format",
			Message: "must be one of: " + strings.Join(validLogFormats, ", "),
			Value:   s.LogFormat,
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

// validateDynamicTokens checks all string fields for unexpanded dynamic tokens.
func validateDynamicTokens(cfg *Config) []ValidationError {
	var errs []ValidationError

	errs = append(errs, checkStringField("dispatcher.prefix", cfg.Dispatcher.Prefix)...)
	errs = append(errs, checkStringField("dispatcher.help_command", cfg.Dispatcher.HelpCommand)...)
	errs = append(errs, checkStringField("dispatcher.manifest", cfg.Dispatcher.Manifest)...)
	errs = append(errs, checkStringField("history.path", cfg.History.Path)...)
	errs = append(errs, checkStringField("backup.dir", cfg.Backup.Dir)...)
	for i, src := range cfg.Backup.Sources {
		errs = append(errs, checkStringField(fmt.Sprintf("backup.sources[%d]", i), src)...)
	}
	errs = append(errs, checkStringField("system.log_level", cfg.System.LogLevel)...)
	errs = append(errs, checkStringField("system.log_format", cfg.System.LogFormat)...)

	return errs
}

// checkStringField checks a single string field for dynamic token patterns.
func checkStringField(field, value string) []ValidationError {
	if value == "" {
		return nil
	}
	for _, pattern := range dynamicTokenPatterns {
		if match := pattern.FindString(value); match != "" {
			return []ValidationError{
				{
					Field:   field,
					Message: fmt.Sprintf("contains unexpanded dynamic token: %s", match),
					Value:   value,
					Wrapped: ErrDynamicToken,
				},
			}
		}
	}
	return nil
}
