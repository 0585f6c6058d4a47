package effects

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// Request is what a builder receives.
type Request struct {
	Effect  string
	Targets []host.Handle
	Options Options
	Env     host.Environment
	// Arena receives any helper elements the builder spawns. The registry
	// ties it to the returned timeline.
	Arena *host.Arena
}

// Multiplier is shorthand for the intensity multiplier of the request.
func (r Request) Multiplier() float64 {
	return r.Options.Intensity.Multiplier()
}

// BuildFunc produces a timeline for a request. It must only mutate targets
// through the returned timeline.
type BuildFunc func(req Request) (*timeline.Timeline, error)

// Variant is a named preset of an effect.
type Variant struct {
	Description string
	// Overrides sit underneath caller options: the caller wins.
	Overrides Options
	// Post adjusts the built timeline.
	Post func(tl *timeline.Timeline)
}

// Definition describes one named effect.
type Definition struct {
	Name         string
	Description  string
	BaseDuration time.Duration
	Variants     map[string]Variant
	Build        BuildFunc
	Fallback     BuildFunc
	Preview      BuildFunc
	// Composable effects may be combined by Compose.
	Composable bool
	// Priority orders parallel composition; higher applies last.
	Priority int
	// Requires lists option fields that must be set.
	Requires []string
}

// Validate checks a definition at registration time.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if d.Build == nil {
		return fmt.Errorf("%w: %s has no builder", ErrInvalidDefinition, d.Name)
	}
	if d.BaseDuration < 0 {
		return fmt.Errorf("%w: %s has negative base duration", ErrInvalidDefinition, d.Name)
	}
	for _, field := range d.Requires {
		if _, ok := optionFields[field]; !ok {
			return fmt.Errorf("%w: %s requires unknown option %q", ErrInvalidDefinition, d.Name, field)
		}
	}
	for name, v := range d.Variants {
		if name == "" {
			return fmt.Errorf("%w: %s has an unnamed variant", ErrInvalidDefinition, d.Name)
		}
		if err := v.Overrides.Validate(); err != nil {
			return fmt.Errorf("%w: %s variant %q: %w", ErrInvalidDefinition, d.Name, name, err)
		}
	}
	return nil
}

// Plugin bundles effect definitions under one name.
type Plugin struct {
	Name         string
	Version      string
	Dependencies []string
	Effects      []Definition
	// OnRegister runs after the plugin's effects are registered. Errors and
	// panics are logged; they never undo the registration.
	OnRegister func(r *Registry) error
}

// PluginInfo is the read-only view of a registered plugin.
type PluginInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies,omitempty"`
	Effects      []string `json:"effects"`
}

// EffectInfo is the read-only view of a registered effect.
type EffectInfo struct {
	Name          string        `json:"name"`
	Plugin        string        `json:"plugin"`
	Description   string        `json:"description,omitempty"`
	BaseDuration  time.Duration `json:"base_duration"`
	Variants      []string      `json:"variants,omitempty"`
	ActiveVariant string        `json:"active_variant,omitempty"`
	Composable    bool          `json:"composable"`
	Priority      int           `json:"priority"`
	HasFallback   bool          `json:"has_fallback"`
}

// ErrorEvent records a failed execution.
type ErrorEvent struct {
	Effect       string    `json:"effect"`
	Error        string    `json:"error"`
	FallbackUsed bool      `json:"fallback_used"`
	At           time.Time `json:"at"`
}
