package engine

import (
	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// Snapshot is a read-only copy of everything the engine knows, for debug
// output and the introspection API.
type Snapshot struct {
	Queue          queue.Snapshot       `json:"queue"`
	ActiveID       string               `json:"active_id,omitempty"`
	Performance    perf.Snapshot        `json:"performance"`
	Plugins        []effects.PluginInfo `json:"plugins"`
	Effects        []string             `json:"effects"`
	ActiveVariants map[string]string    `json:"active_variants"`
	Coordinator    coordinator.State    `json:"coordinator"`
	RecentErrors   []effects.ErrorEvent `json:"recent_errors"`
	ReducedMotion  bool                 `json:"reduced_motion"`
}

// Snapshot collects copies from every component. The parts are read
// independently and may straddle a frame.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Queue:          e.queue.Snapshot(),
		ActiveID:       e.queue.ActiveID(),
		Performance:    e.monitor.Snapshot(),
		Plugins:        e.registry.Plugins(),
		Effects:        e.registry.EffectNames(),
		ActiveVariants: e.registry.ActiveVariants(),
		Coordinator:    e.coordinator.State(),
		RecentErrors:   e.registry.RecentErrors(),
		ReducedMotion:  e.stage.PrefersReducedMotion(),
	}
}
