package builtin

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// Version is reported by every built-in plugin.
const Version = "1.0.0"

// errNoTargets is returned by builders given an empty target set.
var errNoTargets = errors.New("no targets")

// All returns every built-in plugin in registration order.
func All() []effects.Plugin {
	return []effects.Plugin{Grid(), Micro(), Transitions(), Navigation()}
}

// Register registers every built-in plugin with reg.
func Register(reg *effects.Registry) error {
	for _, p := range All() {
		if err := reg.RegisterPlugin(p); err != nil {
			return fmt.Errorf("registering %s: %w", p.Name, err)
		}
	}
	return nil
}

func requireTargets(req effects.Request) error {
	if len(req.Targets) == 0 {
		return fmt.Errorf("%s: %w", req.Effect, errNoTargets)
	}
	return nil
}

// instant builds a fallback that jumps every target to props.
func instant(props host.Properties) effects.BuildFunc {
	return func(req effects.Request) (*timeline.Timeline, error) {
		if err := requireTargets(req); err != nil {
			return nil, err
		}
		tl := timeline.New(req.Effect)
		for _, h := range req.Targets {
			tl.Add(timeline.Step{Target: h, To: props.Clone()})
		}
		return tl, nil
	}
}
