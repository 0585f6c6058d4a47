// Package host defines the boundary between the motion engine and whatever
// owns the animated targets.
//
// The engine never touches a renderer directly. Everything it needs from the
// outside world goes through Environment: resolving locators to handles,
// writing property values, reading current values, the clock, the
// reduced-motion preference, and creating throwaway helper elements for
// effects such as particles and ripples.
//
// # Key Types
//
//   - Environment: capability interface the engine is injected with
//   - Handle: opaque reference to one resolved target
//   - Properties: animatable numeric properties (x, y, scale, opacity, ...)
//   - Stage: in-memory Environment loaded from a YAML stage file
//   - Arena: scope that owns helper elements and disposes them together
//
// # Locators
//
// Stage understands three locator forms, optionally comma-separated:
//
//	#card-3        element with id "card-3"
//	.grid-item     every element carrying class "grid-item"
//	button         every element with tag "button"
package host
