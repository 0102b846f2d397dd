package command

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// @MX:ANCHOR: [AUTO] Registry is the single routing table for every slash command, alias and category.
// @MX:REASON: [AUTO] fan_in=6, used by builtin, cli, mcpserver, manifest and their tests
// Registry holds commands, aliases and the category index. It is built once
// at startup and passed explicitly to every consumer.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*Command
	aliases    map[string]Alias
	categories map[string][]string
	catOrder   []string

	prefix      string
	helpCommand string
	normalize   bool
	notify      DeprecationNotifier
	backup      Backuper
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the marker every command name must start with.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithHelpCommand sets the command referenced by unknown-command messages.
func WithHelpCommand(name string) Option {
	return func(r *Registry) {
		if name != "" {
			r.helpCommand = name
		}
	}
}

// WithDeprecationNotifier replaces the default slog-based deprecation notice.
func WithDeprecationNotifier(fn DeprecationNotifier) Option {
	return func(r *Registry) {
		r.notify = fn
	}
}

// WithBackup sets the service used for commands flagged RequiresBackup.
// Without one those commands still run, and each dispatch logs a warning.
func WithBackup(b Backuper) Option {
	return func(r *Registry) {
		r.backup = b
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNormalization toggles NFC normalization of tokens (on by default) so
// that composed and decomposed Unicode spellings resolve to the same command.
func WithNormalization(enabled bool) Option {
	return func(r *Registry) {
		r.normalize = enabled
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		commands:    make(map[string]*Command),
		aliases:     make(map[string]Alias),
		categories:  make(map[string][]string),
		prefix:      DefaultPrefix,
		helpCommand: DefaultHelpCommand,
		normalize:   true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notify == nil {
		r.notify = r.logDeprecation
	}
	return r
}

// Prefix returns the configured command prefix.
func (r *Registry) Prefix() string { return r.prefix }

// HelpCommand returns the command referenced by unknown-command messages.
func (r *Registry) HelpCommand() string { return r.helpCommand }

// Register adds a command. The name must start with the prefix, must not
// contain whitespace and must not already be taken by a command or alias.
// On failure the registry is left unchanged.
func (r *Registry) Register(name string, cfg Config) error {
	name = r.canonical(name)

	if err := r.checkName(name); err != nil {
		return err
	}
	if cfg.Handler == nil {
		return &ConfigurationError{Name: name, Message: "handler is required", Wrapped: ErrNilHandler}
	}

	category := strings.TrimSpace(cfg.Category)
	if category == "" {
		category = DefaultCategory
	}

	cmd := &Command{
		Name:           name,
		Description:    cfg.Description,
		Category:       category,
		Usage:          cfg.Usage,
		Examples:       slices.Clone(cfg.Examples),
		RequiresBackup: cfg.RequiresBackup,
		Options:        maps.Clone(cfg.Options),
		handler:        cfg.Handler,
	}
	if cmd.Usage == "" {
		cmd.Usage = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return &ConfigurationError{Name: name, Message: "command already registered", Wrapped: ErrDuplicateCommand}
	}
	if _, exists := r.aliases[name]; exists {
		return &ConfigurationError{Name: name, Message: "name is already used as an alias", Wrapped: ErrAliasConflict}
	}

	r.commands[name] = cmd
	if _, seen := r.categories[category]; !seen {
		r.catOrder = append(r.catOrder, category)
	}
	r.categories[category] = append(r.categories[category], name)

	r.logger.Debug("command registered",
		"command", name,
		"category", category,
		"requires_backup", cmd.RequiresBackup,
	)
	return nil
}

// checkName validates the shape of a command name.
func (r *Registry) checkName(name string) error {
	if !strings.HasPrefix(name, r.prefix) {
		return &ConfigurationError{
			Name:    name,
			Message: fmt.Sprintf("command name must start with %q", r.prefix),
			Wrapped: ErrInvalidName,
		}
	}
	if len(name) == len(r.prefix) {
		return &ConfigurationError{Name: name, Message: "command name is empty after prefix", Wrapped: ErrInvalidName}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return &ConfigurationError{Name: name, Message: "command name must not contain whitespace", Wrapped: ErrInvalidName}
	}
	return nil
}

// RegisterAlias maps alias onto target. The target is not required to
// exist yet; use Validate once startup registration is complete.
func (r *Registry) RegisterAlias(alias, target, deprecation string) error {
	alias = r.canonical(alias)
	target = r.canonical(target)

	if alias == "" || strings.IndexFunc(alias, unicode.IsSpace) >= 0 {
		return &ConfigurationError{Name: alias, Message: "alias must be a single non-empty token", Wrapped: ErrInvalidAlias}
	}
	if target == "" {
		return &ConfigurationError{Name: alias, Message: "alias target is empty", Wrapped: ErrInvalidAlias}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[alias]; exists {
		return &ConfigurationError{Name: alias, Message: "alias shadows a registered command", Wrapped: ErrAliasConflict}
	}
	if _, exists := r.aliases[alias]; exists {
		return &ConfigurationError{Name: alias, Message: "alias already registered", Wrapped: ErrAliasConflict}
	}

	r.aliases[alias] = Alias{Name: alias, Target: target, Deprecation: deprecation}
	r.logger.Debug("alias registered", "alias", alias, "target", target, "deprecated", deprecation != "")
	return nil
}

// Resolve looks up token as an alias first and then as a command name.
// Resolving a deprecated alias emits its notice once per call.
func (r *Registry) Resolve(token string) (*Command, error) {
	token = r.canonical(token)

	r.mu.RLock()
	alias, isAlias := r.aliases[token]
	var cmd *Command
	if isAlias {
		cmd = r.commands[alias.Target]
	} else {
		cmd = r.commands[token]
	}
	r.mu.RUnlock()

	if isAlias {
		if alias.Deprecation != "" {
			r.notify(alias.Name, alias.Target, alias.Deprecation)
		}
		if cmd == nil {
			r.logger.Error("alias target not registered", "alias", alias.Name, "target", alias.Target)
			return nil, &UnknownCommandError{Token: token, Target: alias.Target, HelpCommand: r.helpCommand}
		}
		return cmd, nil
	}

	if cmd == nil {
		return nil, &UnknownCommandError{Token: token, HelpCommand: r.helpCommand}
	}
	return cmd, nil
}

// Lookup returns the command registered under name without consulting
// aliases and without side effects.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[r.canonical(name)]
	return cmd, ok
}

// Validate reports every alias whose target is not a registered command.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Sorted(maps.Keys(r.aliases))
	var errs []error
	for _, name := range names {
		a := r.aliases[name]
		if _, ok := r.commands[a.Target]; !ok {
			errs = append(errs, &ConfigurationError{
				Name:    a.Name,
				Message: fmt.Sprintf("alias target %q is not registered", a.Target),
				Wrapped: ErrDanglingAlias,
			})
		}
	}
	return errors.Join(errs...)
}

// ListByCategory returns every category with its commands. Categories and
// commands appear in registration order.
func (r *Registry) ListByCategory() []CategoryGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]CategoryGroup, 0, len(r.catOrder))
	for _, cat := range r.catOrder {
		names := r.categories[cat]
		cmds := make([]*Command, 0, len(names))
		for _, n := range names {
			cmds = append(cmds, r.commands[n])
		}
		groups = append(groups, CategoryGroup{Category: cat, Commands: cmds})
	}
	return groups
}

// Commands returns every registered command sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, 0, len(r.commands))
	for _, n := range slices.Sorted(maps.Keys(r.commands)) {
		out = append(out, r.commands[n])
	}
	return out
}

// Aliases returns every registered alias sorted by alias token.
func (r *Registry) Aliases() []Alias {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Alias, 0, len(r.aliases))
	for _, n := range slices.Sorted(maps.Keys(r.aliases)) {
		out = append(out, r.aliases[n])
	}
	return out
}

// AliasesFor returns the aliases that point at name.
func (r *Registry) AliasesFor(name string) []Alias {
	name = r.canonical(name)
	var out []Alias
	for _, a := range r.Aliases() {
		if a.Target == name {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) canonical(token string) string {
	token = strings.TrimSpace(token)
	if r.normalize {
		return norm.NFC.String(token)
	}
	return token
}

func (r *Registry) logDeprecation(alias, target, message string) {
	r.logger.Warn("deprecated command alias",
		"alias", alias,
		"target", target,
		"message", message,
	)
}
