package builtin

import (
	"math"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

const (
	burstDuration  = 800 * time.Millisecond
	burstParticles = 8
	burstRadius    = 60.0
	rippleDuration = 600 * time.Millisecond
	glowDuration   = 1200 * time.Millisecond
)

// Micro returns the composable micro-effect plugin.
func Micro() effects.Plugin {
	return effects.Plugin{
		Name:    "micro",
		Version: Version,
		Effects: []effects.Definition{
			{
				Name:         "particle-burst",
				Description:  "Particles fly out radially from each target and fade",
				BaseDuration: burstDuration,
				Composable:   true,
				Priority:     10,
				Variants: map[string]effects.Variant{
					"confetti": {
						Description: "Twice the particles, pushed further",
						Overrides:   effects.Options{Count: 16, Intensity: effects.IntensityStrong},
					},
				},
				Build: buildParticleBurst,
				Preview: func(req effects.Request) (*timeline.Timeline, error) {
					req.Options.Count = 4
					req.Options.Duration = burstDuration / 2
					return buildParticleBurst(req)
				},
			},
			{
				Name:         "ripple",
				Description:  "An expanding ring behind each target",
				BaseDuration: rippleDuration,
				Composable:   true,
				Priority:     5,
				Build:        buildRipple,
			},
			{
				Name:         "glow-pulse",
				Description:  "Glow swells and settles; count -1 loops until killed",
				BaseDuration: glowDuration,
				Composable:   true,
				Priority:     1,
				Variants: map[string]effects.Variant{
					"breathe": {
						Description: "Slow endless pulse",
						Overrides:   effects.Options{Count: -1, Duration: 2 * time.Second},
						Post:        func(tl *timeline.Timeline) { setEasing(tl, timeline.EaseInOut) },
					},
					"flash": {
						Description: "One quick pulse",
						Overrides:   effects.Options{Duration: 300 * time.Millisecond, Intensity: effects.IntensityStrong},
					},
				},
				Build: buildGlowPulse,
			},
		},
	}
}

func setEasing(tl *timeline.Timeline, easing string) {
	for i := range tl.Steps {
		tl.Steps[i].Easing = easing
	}
}

func buildParticleBurst(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}

	m := req.Multiplier()
	d := req.Options.DurationOr(burstDuration)
	count := req.Options.CountOr(burstParticles)
	if count <= 0 {
		count = burstParticles
	}
	radius := req.Options.DistanceOr(burstRadius) * m
	easing := req.Options.EasingOr(timeline.Power3Out)

	tl := timeline.New(req.Effect)
	for _, target := range req.Targets {
		for i := 0; i < count; i++ {
			p, err := req.Arena.Spawn("particle", target)
			if err != nil {
				return nil, err
			}
			angle := 2 * math.Pi * float64(i) / float64(count)
			tl.Add(timeline.Step{
				Target: p,
				From:   host.Properties{host.PropX: 0, host.PropY: 0, host.PropOpacity: 1, host.PropScale: 1},
				To: host.Properties{
					host.PropX:       math.Cos(angle) * radius,
					host.PropY:       math.Sin(angle) * radius,
					host.PropOpacity: 0,
					host.PropScale:   0.3,
				},
				Duration: d,
				Easing:   easing,
			})
		}

		// The target pops and returns to wherever it was.
		tl.Add(timeline.Step{
			Target:   target,
			To:       host.Properties{host.PropScale: 1 + 0.06*m},
			Duration: d / 4,
			Repeat:   1,
			Yoyo:     true,
			Easing:   timeline.EaseOut,
		})
	}
	return tl, nil
}

func buildRipple(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}

	m := req.Multiplier()
	d := req.Options.DurationOr(rippleDuration)
	easing := req.Options.EasingOr(timeline.EaseOut)

	tl := timeline.New(req.Effect)
	for _, target := range req.Targets {
		ring, err := req.Arena.Spawn("ripple", target)
		if err != nil {
			return nil, err
		}
		tl.Add(timeline.Step{
			Target:   ring,
			From:     host.Properties{host.PropScale: 0, host.PropOpacity: math.Min(1, 0.6*m)},
			To:       host.Properties{host.PropScale: 2.5 * m, host.PropOpacity: 0},
			Duration: d,
			Easing:   easing,
		})
	}
	return tl, nil
}

// buildGlowPulse swells the glow for half a pulse and settles it for the
// other half. Count is the number of pulses.
func buildGlowPulse(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}

	m := req.Multiplier()
	d := req.Options.DurationOr(glowDuration)
	half := d / 2
	repeat := timeline.RepeatInfinite
	if pulses := req.Options.CountOr(1); pulses > 0 {
		repeat = 2*pulses - 1
	}

	tl := timeline.New(req.Effect)
	for _, target := range req.Targets {
		tl.Add(timeline.Step{
			Target:   target,
			From:     host.Properties{host.PropGlow: 0},
			To:       host.Properties{host.PropGlow: m},
			Duration: half,
			Repeat:   repeat,
			Yoyo:     true,
			Easing:   req.Options.EasingOr(timeline.EaseInOutCubic),
		})
	}
	return tl, nil
}
