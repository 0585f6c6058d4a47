// Package effects is the catalogue of named animation effects.
//
// Effects are contributed by plugins. Each Definition knows how to build a
// timeline.Timeline for a set of resolved targets and typed Options, and may
// carry named variants (option presets plus an optional post-processing
// hook), a fallback builder, and a cheaper preview builder.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                 Registry (registry.go)                  │
//	│  plugins ──▶ definitions ──▶ active variant per effect  │
//	│                                                         │
//	│  Execute (execute.go)                                   │
//	│  1. Look up definition                                  │
//	│  2. Merge variant overrides under caller options        │
//	│  3. Build inside a helper arena (panics recovered)      │
//	│  4. On failure try the fallback builder                 │
//	│  5. Collapse when motion is reduced or frames are slow  │
//	│                                                         │
//	│  Compose: parallel | sequential | staggered             │
//	└────────────────────────────────────────────────────────┘
//
// # Thread Safety
//
// Registry is safe for concurrent use. Builders run outside the registry
// lock, so a slow builder never blocks registration or lookups.
//
// # Usage
//
//	reg := effects.NewRegistry(stage)
//	reg.SetLogger(log)
//	if err := reg.RegisterPlugin(builtin.Grid()); err != nil {
//	    return err
//	}
//	tl, err := reg.Execute("ipad-grid-select", stage.Resolve(".grid-item"),
//	    effects.Options{SelectedIndex: effects.Int(2)})
package effects
