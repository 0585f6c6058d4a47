// Package builtin provides the effect plugins shipped with the engine.
//
// Plugins:
//
//	ipad-grid    ipad-grid-select, ipad-grid-reset
//	micro        particle-burst, ripple, glow-pulse (composable)
//	transitions  slide-in, scale-in
//	navigation   navigate-to, scroll-into-view, highlight, modal-open, focus-ring
//
// Every navigation effect has an instant fallback so the queue and the
// coordinator can always land the final state even when the animated
// build fails.
package builtin
