package builtin

import (
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

const (
	slideDuration = 500 * time.Millisecond
	slideDistance = 40.0
	slideStagger  = 60 * time.Millisecond
	scaleDuration = 400 * time.Millisecond
	scaleStagger  = 50 * time.Millisecond
)

var shown = host.Properties{host.PropX: 0, host.PropY: 0, host.PropScale: 1, host.PropOpacity: 1}

// Transitions returns the entrance transition plugin.
func Transitions() effects.Plugin {
	return effects.Plugin{
		Name:    "transitions",
		Version: Version,
		Effects: []effects.Definition{
			{
				Name:         "slide-in",
				Description:  "Slide and fade in from an edge",
				BaseDuration: slideDuration,
				Variants: map[string]effects.Variant{
					"from-right":  {Overrides: effects.Options{Direction: effects.DirectionRight}},
					"from-bottom": {Overrides: effects.Options{Direction: effects.DirectionDown}},
				},
				Build:    buildSlideIn,
				Fallback: instant(shown),
			},
			{
				Name:         "scale-in",
				Description:  "Grow and fade in",
				BaseDuration: scaleDuration,
				Variants: map[string]effects.Variant{
					"pop": {Overrides: effects.Options{Intensity: effects.IntensityStrong, Easing: timeline.EaseOutBack}},
				},
				Build:    buildScaleIn,
				Fallback: instant(shown),
			},
		},
	}
}

func buildSlideIn(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}

	dir := req.Options.Direction
	if dir == "" {
		dir = effects.DirectionLeft
	}
	dist := req.Options.DistanceOr(slideDistance) * req.Multiplier()
	v := directionVector(dir, false)
	from := host.Properties{host.PropX: v[0] * dist, host.PropY: v[1] * dist, host.PropOpacity: 0}
	to := host.Properties{host.PropX: 0, host.PropY: 0, host.PropOpacity: 1}

	return staggered(req, from, to, slideDuration, slideStagger, timeline.Power2Out), nil
}

func buildScaleIn(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}

	from := host.Properties{host.PropScale: 1 - 0.2*req.Multiplier(), host.PropOpacity: 0}
	to := host.Properties{host.PropScale: 1, host.PropOpacity: 1}

	return staggered(req, from, to, scaleDuration, scaleStagger, timeline.EaseOut), nil
}

// staggered tweens every target from the same start to the same end, each
// one stagger after the previous.
func staggered(req effects.Request, from, to host.Properties, d, stagger time.Duration, easing string) *timeline.Timeline {
	d = req.Options.DurationOr(d)
	stagger = req.Options.StaggerOr(stagger)
	easing = req.Options.EasingOr(easing)

	tl := timeline.New(req.Effect)
	for i, h := range req.Targets {
		tl.Add(timeline.Step{
			Target:   h,
			From:     from.Clone(),
			To:       to.Clone(),
			Offset:   stagger * time.Duration(i),
			Duration: d,
			Easing:   easing,
		})
	}
	return tl
}
