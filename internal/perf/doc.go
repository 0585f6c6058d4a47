// Package perf watches frame delivery and host CPU load and tells the
// effect registry when animations should be collapsed to their instant
// form.
//
// The frame loop calls Frame on every tick. Once per sample interval the
// monitor turns the frame count into an FPS reading. ShouldSkip reports
// true while the latest reading is below the floor, or while host CPU load
// sampled by Run is above the optional ceiling.
package perf
