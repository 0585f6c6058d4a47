package timeline

import (
	"math"
	"sort"
)

// Easing names.
const (
	Linear         = "linear"
	EaseIn         = "ease-in"
	EaseOut        = "ease-out"
	EaseInOut      = "ease-in-out"
	EaseInOutCubic = "ease-in-out-cubic"
	EaseOutBack    = "ease-out-back"
	Power2Out      = "power2.out"
	Power3Out      = "power3.out"
)

// EasingFunc maps linear progress in [0,1] to eased progress.
type EasingFunc func(t float64) float64

var easings = map[string]EasingFunc{
	Linear:         func(t float64) float64 { return t },
	EaseIn:         func(t float64) float64 { return t * t },
	EaseOut:        func(t float64) float64 { return 1 - (1-t)*(1-t) },
	EaseInOut:      easeInOutQuad,
	EaseInOutCubic: easeInOutCubic,
	EaseOutBack:    easeOutBack,
	Power2Out:      func(t float64) float64 { return 1 - math.Pow(1-t, 3) },
	Power3Out:      func(t float64) float64 { return 1 - math.Pow(1-t, 4) },
}

// Ease returns the easing function for name, or linear for unknown names.
func Ease(name string) EasingFunc {
	if fn, ok := easings[name]; ok {
		return fn
	}
	return easings[Linear]
}

// KnownEasing reports whether name is a registered easing. The empty name
// is accepted and means linear.
func KnownEasing(name string) bool {
	if name == "" {
		return true
	}
	_, ok := easings[name]
	return ok
}

// Easings lists the registered easing names, sorted.
func Easings() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func easeOutBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
