package queue

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/effects/builtin"
)

// Kind selects the effect a command plays.
type Kind string

// Command kinds. Custom commands name their effect explicitly.
const (
	KindNavigate  Kind = "navigate"
	KindHighlight Kind = "highlight"
	KindModalOpen Kind = "modal-open"
	KindCustom    Kind = "custom"
)

// Priority orders pending commands.
type Priority int

// Priorities. Override clears the queue before it is enqueued.
const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityOverride
)

// String returns the lower-case name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityOverride:
		return "override"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts a name produced by String back to a Priority.
// The empty string is Normal.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "override":
		return PriorityOverride, nil
	}
	return PriorityNormal, fmt.Errorf("%w: unknown priority %q", ErrInvalidCommand, s)
}

// Options are the per-command playback settings.
type Options struct {
	Easing string
	Delay  time.Duration
	// Coordinated marks a command that was submitted as part of a group.
	Coordinated bool
	// OnStart and OnComplete run outside the queue lock. They never run for
	// killed or failed commands.
	OnStart    func()
	OnComplete func()
	// Params are passed to the effect builder. Easing, Delay and the
	// command Duration are written over them when set.
	Params effects.Options
}

// Command is one request to play an effect against a locator.
type Command struct {
	ID       string
	Kind     Kind
	Effect   string
	Target   string
	Duration time.Duration
	Options  Options
	Priority Priority
}

// EffectName returns the registry effect the command plays.
func (c Command) EffectName() string {
	switch c.Kind {
	case KindNavigate:
		return builtin.NavigateTo
	case KindHighlight:
		return builtin.Highlight
	case KindModalOpen:
		return builtin.ModalOpen
	default:
		return c.Effect
	}
}

// Validate checks the command before it is queued.
func (c Command) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidCommand)
	}
	switch c.Kind {
	case KindNavigate, KindHighlight, KindModalOpen:
	case KindCustom:
		if c.Effect == "" {
			return fmt.Errorf("%w: custom command needs an effect", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCommand, c.Kind)
	}
	if c.Duration < 0 || c.Options.Delay < 0 {
		return fmt.Errorf("%w: negative timing", ErrInvalidCommand)
	}
	if c.Priority < PriorityNormal || c.Priority > PriorityOverride {
		return fmt.Errorf("%w: %s", ErrInvalidCommand, c.Priority)
	}
	return nil
}

// params merges the command-level settings into the builder options.
func (c Command) params() effects.Options {
	p := c.Options.Params
	if c.Duration > 0 {
		p.Duration = c.Duration
	}
	if c.Options.Easing != "" {
		p.Easing = c.Options.Easing
	}
	if c.Options.Delay > 0 {
		p.Delay = c.Options.Delay
	}
	return p
}
