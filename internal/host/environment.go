package host

import (
	"maps"
	"time"
)

// Well-known animatable properties.
const (
	PropX          = "x"
	PropY          = "y"
	PropScale      = "scale"
	PropOpacity    = "opacity"
	PropBrightness = "brightness"
	PropRotate     = "rotate"
	PropGlow       = "glow"
	PropOutline    = "outline"
	PropScrollY    = "scroll_y"
	PropOpen       = "open"
	PropFocus      = "focus"
)

// Rect is an element's layout box in stage coordinates.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Center returns the midpoint of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Handle references one resolved target. Handles are values; two handles
// with the same ID refer to the same element.
type Handle struct {
	ID     string `json:"id"`
	Tag    string `json:"tag,omitempty"`
	Bounds Rect   `json:"bounds"`
	Helper bool   `json:"helper,omitempty"`
}

// Properties holds animatable numeric values keyed by property name.
type Properties map[string]float64

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Merge returns a copy of p with every key of other written over it.
func (p Properties) Merge(other Properties) Properties {
	out := make(Properties, len(p)+len(other))
	maps.Copy(out, p)
	maps.Copy(out, other)
	return out
}

// Identity returns the resting values of the transform properties.
func Identity() Properties {
	return Properties{
		PropX:          0,
		PropY:          0,
		PropScale:      1,
		PropOpacity:    1,
		PropBrightness: 1,
		PropRotate:     0,
	}
}

// Environment is everything the engine needs from the owner of the targets.
//
// Implementations must be safe for concurrent use: the frame loop applies
// values while API handlers and validators resolve locators.
type Environment interface {
	// Resolve returns the handles matched by a locator, in document order.
	// An unmatched locator yields an empty slice, not an error.
	Resolve(locator string) []Handle

	// Apply writes property values to a target.
	Apply(h Handle, props Properties) error

	// Inspect reads the current property values of a target.
	Inspect(h Handle) (Properties, error)

	// Now is the host clock.
	Now() time.Time

	// PrefersReducedMotion reports the user's reduced-motion preference.
	PrefersReducedMotion() bool

	// Spawn creates an ephemeral helper element attached to parent.
	Spawn(kind string, parent Handle) (Handle, error)

	// Dispose removes a helper element. Disposing an unknown handle is a no-op.
	Dispose(h Handle)
}
