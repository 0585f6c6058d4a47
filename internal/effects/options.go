package effects

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// Intensity scales how far an effect moves, fades, or glows.
type Intensity string

// Intensity levels.
const (
	IntensitySubtle Intensity = "subtle"
	IntensityMedium Intensity = "medium"
	IntensityStrong Intensity = "strong"
)

// Multiplier returns the scale factor for the intensity. Unset means medium.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensitySubtle:
		return 0.7
	case IntensityStrong:
		return 1.4
	default:
		return 1.0
	}
}

// Direction is the edge an element travels from or towards.
type Direction string

// Directions.
const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// Spread orders staggered targets.
type Spread string

// Spread modes.
const (
	// SpreadDirection staggers by index distance from the origin.
	SpreadDirection Spread = "direction"
	// SpreadCenter staggers by geometric distance from the origin.
	SpreadCenter Spread = "center"
	// SpreadRandom staggers in a seeded random order.
	SpreadRandom Spread = "random"
)

// Option field names, used by Definition.Requires.
const (
	OptDuration      = "duration"
	OptDelay         = "delay"
	OptEasing        = "easing"
	OptStagger       = "stagger"
	OptIntensity     = "intensity"
	OptDirection     = "direction"
	OptSpread        = "spread"
	OptSelectedIndex = "selected_index"
	OptDistance      = "distance"
	OptCount         = "count"
	OptSeed          = "seed"
)

var optionFields = map[string]struct{}{
	OptDuration: {}, OptDelay: {}, OptEasing: {}, OptStagger: {}, OptIntensity: {},
	OptDirection: {}, OptSpread: {}, OptSelectedIndex: {}, OptDistance: {}, OptCount: {}, OptSeed: {},
}

// Options parameterise one effect execution. The zero value of every field
// means "unset"; builders fall back to the definition's defaults.
type Options struct {
	Duration      time.Duration
	Delay         time.Duration
	Easing        string
	Stagger       time.Duration
	Intensity     Intensity
	Direction     Direction
	Spread        Spread
	SelectedIndex *int
	Distance      float64
	// Count is a repetition or particle count. -1 asks looping effects to
	// run until their timeline is killed.
	Count int
	Seed  int64

	// RespectReducedMotion defaults to true.
	RespectReducedMotion *bool
	// FallbackOnError defaults to true.
	FallbackOnError *bool
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Merge returns o with every set field of over written on top.
func (o Options) Merge(over Options) Options {
	if over.Duration != 0 {
		o.Duration = over.Duration
	}
	if over.Delay != 0 {
		o.Delay = over.Delay
	}
	if over.Easing != "" {
		o.Easing = over.Easing
	}
	if over.Stagger != 0 {
		o.Stagger = over.Stagger
	}
	if over.Intensity != "" {
		o.Intensity = over.Intensity
	}
	if over.Direction != "" {
		o.Direction = over.Direction
	}
	if over.Spread != "" {
		o.Spread = over.Spread
	}
	if over.SelectedIndex != nil {
		o.SelectedIndex = Int(*over.SelectedIndex)
	}
	if over.Distance != 0 {
		o.Distance = over.Distance
	}
	if over.Count != 0 {
		o.Count = over.Count
	}
	if over.Seed != 0 {
		o.Seed = over.Seed
	}
	if over.RespectReducedMotion != nil {
		o.RespectReducedMotion = Bool(*over.RespectReducedMotion)
	}
	if over.FallbackOnError != nil {
		o.FallbackOnError = Bool(*over.FallbackOnError)
	}
	return o
}

// Has reports whether the named field is set.
func (o Options) Has(field string) bool {
	switch field {
	case OptDuration:
		return o.Duration != 0
	case OptDelay:
		return o.Delay != 0
	case OptEasing:
		return o.Easing != ""
	case OptStagger:
		return o.Stagger != 0
	case OptIntensity:
		return o.Intensity != ""
	case OptDirection:
		return o.Direction != ""
	case OptSpread:
		return o.Spread != ""
	case OptSelectedIndex:
		return o.SelectedIndex != nil
	case OptDistance:
		return o.Distance != 0
	case OptCount:
		return o.Count != 0
	case OptSeed:
		return o.Seed != 0
	}
	return false
}

// DurationOr returns the caller's duration or def.
func (o Options) DurationOr(def time.Duration) time.Duration {
	if o.Duration > 0 {
		return o.Duration
	}
	return def
}

// EasingOr returns the caller's easing or def.
func (o Options) EasingOr(def string) string {
	if o.Easing != "" {
		return o.Easing
	}
	return def
}

// StaggerOr returns the caller's stagger or def.
func (o Options) StaggerOr(def time.Duration) time.Duration {
	if o.Stagger > 0 {
		return o.Stagger
	}
	return def
}

// DistanceOr returns the caller's distance or def.
func (o Options) DistanceOr(def float64) float64 {
	if o.Distance > 0 {
		return o.Distance
	}
	return def
}

// CountOr returns the caller's count or def.
func (o Options) CountOr(def int) int {
	if o.Count != 0 {
		return o.Count
	}
	return def
}

func (o Options) respectReducedMotion() bool {
	return o.RespectReducedMotion == nil || *o.RespectReducedMotion
}

func (o Options) fallbackOnError() bool {
	return o.FallbackOnError == nil || *o.FallbackOnError
}

// Validate checks option values for range and enum errors.
func (o Options) Validate() error {
	switch {
	case o.Duration < 0 || o.Delay < 0 || o.Stagger < 0:
		return fmt.Errorf("%w: negative timing", ErrInvalidOptions)
	case !timeline.KnownEasing(o.Easing):
		return fmt.Errorf("%w: unknown easing %q", ErrInvalidOptions, o.Easing)
	case o.Distance < 0:
		return fmt.Errorf("%w: negative distance", ErrInvalidOptions)
	case o.Count < -1:
		return fmt.Errorf("%w: count %d", ErrInvalidOptions, o.Count)
	case o.SelectedIndex != nil && *o.SelectedIndex < 0:
		return fmt.Errorf("%w: negative selected index", ErrInvalidOptions)
	}

	switch o.Intensity {
	case "", IntensitySubtle, IntensityMedium, IntensityStrong:
	default:
		return fmt.Errorf("%w: unknown intensity %q", ErrInvalidOptions, o.Intensity)
	}
	switch o.Direction {
	case "", DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidOptions, o.Direction)
	}
	switch o.Spread {
	case "", SpreadDirection, SpreadCenter, SpreadRandom:
	default:
		return fmt.Errorf("%w: unknown spread %q", ErrInvalidOptions, o.Spread)
	}
	return nil
}
