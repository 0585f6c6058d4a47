// Package timeline holds the timed programs the motion engine plays.
//
// A Timeline is an ordered list of Steps. Each step tweens a set of
// properties on one target from a start value to an end value over a
// duration, beginning at an offset from the timeline start. A Player
// advances a timeline against a host.Environment on every frame tick.
//
// Invariant: every finite step ends at or before Total. Infinitely
// repeating steps are excluded from Total and stop when the timeline
// completes or is killed.
package timeline
