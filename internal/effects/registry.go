package effects

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
)

// maxErrorEvents bounds the in-memory error log.
const maxErrorEvents = 50

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Degrader tells the registry to skip motion, usually because frames are
// being dropped.
type Degrader interface {
	ShouldSkip() bool
}

type entry struct {
	def    Definition
	plugin string
}

// Registry holds plugins, their effect definitions and the active variant
// per effect.
//
// Thread Safety: all public methods are safe for concurrent use.
type Registry struct {
	env      host.Environment
	mu       sync.RWMutex
	plugins  map[string]*Plugin
	effects  map[string]entry
	variants map[string]string
	errors   []ErrorEvent
	degrader Degrader
	logger   Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry building against env.
func NewRegistry(env host.Environment) *Registry {
	return &Registry{
		env:      env,
		plugins:  make(map[string]*Plugin),
		effects:  make(map[string]entry),
		variants: make(map[string]string),
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetDegrader installs the performance skip signal.
func (r *Registry) SetDegrader(d Degrader) {
	r.mu.Lock()
	r.degrader = d
	r.mu.Unlock()
}

// RegisterPlugin validates and registers every definition in p.
//
// Returns:
//   - ErrInvalidPlugin if the plugin has no name
//   - ErrPluginExists if a plugin of the same name is registered
//   - ErrInvalidDefinition if any definition fails validation
//   - ErrEffectExists if an effect name is already taken
func (r *Registry) RegisterPlugin(p Plugin) error {
	if p.Name == "" {
		return ErrInvalidPlugin
	}

	seen := make(map[string]struct{}, len(p.Effects))
	for _, def := range p.Effects {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name, err)
		}
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("plugin %s: %w: %s declared twice", p.Name, ErrEffectExists, def.Name)
		}
		seen[def.Name] = struct{}{}
	}

	r.mu.Lock()
	if _, exists := r.plugins[p.Name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginExists, p.Name)
	}
	for _, def := range p.Effects {
		if owner, taken := r.effects[def.Name]; taken {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s is owned by plugin %s", ErrEffectExists, def.Name, owner.plugin)
		}
	}

	var missing []string
	for _, dep := range p.Dependencies {
		if _, ok := r.plugins[dep]; !ok {
			missing = append(missing, dep)
		}
	}

	stored := p
	stored.Effects = slices.Clone(p.Effects)
	r.plugins[p.Name] = &stored
	for _, def := range stored.Effects {
		r.effects[def.Name] = entry{def: def, plugin: p.Name}
	}
	r.mu.Unlock()

	if len(missing) > 0 {
		r.logger.Warn("plugin registered with missing dependencies",
			"plugin", p.Name,
			"missing", missing,
		)
	}
	r.logger.Info("effect plugin registered",
		"plugin", p.Name,
		"version", p.Version,
		"effects", len(p.Effects),
	)

	if p.OnRegister != nil {
		r.runHook(p)
	}
	return nil
}

func (r *Registry) runHook(p Plugin) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("plugin register hook panicked", "plugin", p.Name, "panic", rec)
		}
	}()
	if err := p.OnRegister(r); err != nil {
		r.logger.Warn("plugin register hook failed", "plugin", p.Name, "error", err)
	}
}

// UnregisterPlugin removes a plugin, its effects, and their variant selections.
func (r *Registry) UnregisterPlugin(name string) error {
	r.mu.Lock()
	p, ok := r.plugins[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	delete(r.plugins, name)
	for _, def := range p.Effects {
		delete(r.effects, def.Name)
		delete(r.variants, def.Name)
	}

	var dependents []string
	for _, other := range r.plugins {
		if slices.Contains(other.Dependencies, name) {
			dependents = append(dependents, other.Name)
		}
	}
	r.mu.Unlock()

	if len(dependents) > 0 {
		sort.Strings(dependents)
		r.logger.Warn("unregistered plugin still has dependents", "plugin", name, "dependents", dependents)
	}
	r.logger.Info("effect plugin unregistered", "plugin", name)
	return nil
}

// SetVariant selects the active variant for an effect. An unknown effect
// or variant leaves the selection unchanged.
func (r *Registry) SetVariant(effect, variant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.effects[effect]
	if !ok {
		r.logger.Warn("variant selected for unknown effect", "effect", effect, "variant", variant)
		return fmt.Errorf("%w: %s", ErrEffectNotFound, effect)
	}
	if _, ok := e.def.Variants[variant]; !ok {
		r.logger.Warn("unknown variant", "effect", effect, "variant", variant)
		return fmt.Errorf("%w: %s/%s", ErrUnknownVariant, effect, variant)
	}
	r.variants[effect] = variant
	return nil
}

// ClearVariant returns an effect to its base behaviour.
func (r *Registry) ClearVariant(effect string) {
	r.mu.Lock()
	delete(r.variants, effect)
	r.mu.Unlock()
}

// ActiveVariant returns the selected variant of an effect.
func (r *Registry) ActiveVariant(effect string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[effect]
	return v, ok
}

// ActiveVariants returns a copy of every variant selection.
func (r *Registry) ActiveVariants() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.variants))
	for k, v := range r.variants {
		out[k] = v
	}
	return out
}

// Has reports whether an effect is registered.
func (r *Registry) Has(effect string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.effects[effect]
	return ok
}

// Plugins lists registered plugins sorted by name.
func (r *Registry) Plugins() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		info := PluginInfo{
			Name:         p.Name,
			Version:      p.Version,
			Dependencies: slices.Clone(p.Dependencies),
		}
		for _, def := range p.Effects {
			info.Effects = append(info.Effects, def.Name)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Effects lists registered effects sorted by name.
func (r *Registry) Effects() []EffectInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EffectInfo, 0, len(r.effects))
	for name, e := range r.effects {
		info := EffectInfo{
			Name:          name,
			Plugin:        e.plugin,
			Description:   e.def.Description,
			BaseDuration:  e.def.BaseDuration,
			ActiveVariant: r.variants[name],
			Composable:    e.def.Composable,
			Priority:      e.def.Priority,
			HasFallback:   e.def.Fallback != nil,
		}
		for v := range e.def.Variants {
			info.Variants = append(info.Variants, v)
		}
		sort.Strings(info.Variants)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EffectNames lists registered effect names sorted.
func (r *Registry) EffectNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.effects))
	for name := range r.effects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RecentErrors returns the most recent failed executions, oldest first.
func (r *Registry) RecentErrors() []ErrorEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.errors)
}

func (r *Registry) recordError(effect string, err error, fallbackUsed bool) {
	r.mu.Lock()
	r.errors = append(r.errors, ErrorEvent{
		Effect:       effect,
		Error:        err.Error(),
		FallbackUsed: fallbackUsed,
		At:           r.now().UTC(),
	})
	if len(r.errors) > maxErrorEvents {
		r.errors = slices.Clone(r.errors[len(r.errors)-maxErrorEvents:])
	}
	r.mu.Unlock()
}

// lookup returns the definition of an effect and its active variant.
func (r *Registry) lookup(effect string) (Definition, *Variant, Degrader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.effects[effect]
	if !ok {
		return Definition{}, nil, nil, false
	}
	var variant *Variant
	if name, selected := r.variants[effect]; selected {
		if v, ok := e.def.Variants[name]; ok {
			variant = &v
		}
	}
	return e.def, variant, r.degrader, true
}
