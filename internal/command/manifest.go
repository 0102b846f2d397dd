package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest indicates a manifest file that cannot be applied.
var ErrInvalidManifest = errors.New("command: invalid manifest")

// Manifest declares aliases and externally implemented commands in YAML.
type Manifest struct {
	Aliases  []ManifestAlias   `yaml:"aliases"`
	Commands []ManifestCommand `yaml:"commands"`

	// dir is where exec commands run. It defaults to the manifest's directory.
	dir string
}

// SetWorkDir makes exec commands run in dir instead of the manifest's directory.
func (m *Manifest) SetWorkDir(dir string) {
	if dir != "" {
		m.dir = dir
	}
}

// ManifestAlias is one alias entry of a manifest.
type ManifestAlias struct {
	Alias       string `yaml:"alias"`
	Target      string `yaml:"target"`
	Deprecation string `yaml:"deprecation"`
}

// ManifestCommand is one exec-backed command entry of a manifest.
type ManifestCommand struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Category       string         `yaml:"category"`
	Usage          string         `yaml:"usage"`
	Examples       []string       `yaml:"examples"`
	RequiresBackup bool           `yaml:"requires_backup"`
	Exec           []string       `yaml:"exec"`
	Options        map[string]any `yaml:"options"`
}

// RunFunc executes an external program and returns its combined output.
type RunFunc func(ctx context.Context, dir string, name string, args ...string) (string, error)

// LoadManifest reads a manifest file. A missing file yields an empty
// manifest so projects without one need no special casing.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{dir: filepath.Dir(path)}, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	for i, c := range m.Commands {
		if len(c.Exec) == 0 {
			return nil, fmt.Errorf("%w: command %q (entry %d) has no exec", ErrInvalidManifest, c.Name, i)
		}
	}
	return &m, nil
}

// Apply registers the manifest's commands and then its aliases. It stops
// at the first registration error.
func (m *Manifest) Apply(reg *Registry, run RunFunc) error {
	if run == nil {
		run = defaultRun
	}

	for _, c := range m.Commands {
		err := reg.Register(c.Name, Config{
			Description:    c.Description,
			Handler:        execHandler(m.dir, c.Exec, run),
			Category:       c.Category,
			Usage:          c.Usage,
			Examples:       c.Examples,
			RequiresBackup: c.RequiresBackup,
			Options:        c.Options,
		})
		if err != nil {
			return fmt.Errorf("manifest command %q: %w", c.Name, err)
		}
	}

	for _, a := range m.Aliases {
		if err := reg.RegisterAlias(a.Alias, a.Target, a.Deprecation); err != nil {
			return fmt.Errorf("manifest alias %q: %w", a.Alias, err)
		}
	}
	return nil
}

// execHandler returns a Handler that runs argv with the positional
// arguments appended, followed by the options re-rendered as flags.
func execHandler(dir string, argv []string, run RunFunc) Handler {
	return func(ctx context.Context, args []string, opts Options, _ *Command) (any, error) {
		full := make([]string, 0, len(argv)-1+len(args)+len(opts)*2)
		full = append(full, argv[1:]...)
		full = append(full, args...)
		full = append(full, opts.Args()...)

		out, err := run(ctx, dir, argv[0], full...)
		if err != nil {
			if out != "" {
				return nil, fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(out))
			}
			return nil, fmt.Errorf("%s: %w", argv[0], err)
		}
		return strings.TrimRight(out, "\n"), nil
	}
}

func defaultRun(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
