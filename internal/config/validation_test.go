package config

import (
	"errors"
	"testing"

	"github.com/modu-ai/moai-dispatch/internal/structure"
)

func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	if err := Validate(NewDefaultConfig(), nil); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		loaded  map[string]bool
		field   string
		wantErr error
	}{
		{
			name:    "empty prefix",
			mutate:  func(c *Config) { c.Dispatcher.Prefix = "" },
			field:   "dispatcher.prefix",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "prefix with space",
			mutate:  func(c *Config) { c.Dispatcher.Prefix = "/ " },
			field:   "dispatcher.prefix",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "help command outside prefix",
			mutate:  func(c *Config) { c.Dispatcher.HelpCommand = "help" },
			field:   "dispatcher.help_command",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.History.Retention = -5 },
			field:   "history.retention",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "history path required when loaded",
			mutate:  func(c *Config) { c.History.Path = "" },
			loaded:  map[string]bool{"history": true},
			field:   "history.path",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative keep",
			mutate:  func(c *Config) { c.Backup.Keep = -1 },
			field:   "backup.keep",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "blank source",
			mutate:  func(c *Config) { c.Backup.Sources = []string{" "} },
			field:   "backup.sources[0]",
			wantErr: ErrInvalidConfig,
		},
		{
			name: "bad structure rule",
			mutate: func(c *Config) {
				c.Structure.Rules = []structure.Rule{{Pattern: "*.md", Convention: "weird"}}
			},
			field:   "structure.rules",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.System.LogLevel = "verbose" },
			field:   "system.log_level",
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.System.LogFormat = "xml" },
			field:   "system.log_format",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "dynamic token",
			mutate:  func(c *Config) { c.Dispatcher.Manifest = "${PROJECT}/commands.yaml" },
			field:   "dispatcher.manifest",
			wantErr: ErrDynamicToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg, tt.loaded)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected *ValidationErrors, got %T", err)
			}
			found := false
			for _, ve := range verrs.Errors {
				if ve.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, verrs)
			}
		})
	}
}

func TestValidateUppercaseLogLevel(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	cfg.System.LogLevel = "DEBUG"
	if err := Validate(cfg, nil); err != nil {
		t.Errorf("log level should be case-insensitive, got %v", err)
	}
}
