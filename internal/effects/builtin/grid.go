package builtin

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

const (
	gridSelectDuration = 700 * time.Millisecond
	gridResetDuration  = 500 * time.Millisecond
	gridStagger        = 30 * time.Millisecond
	gridDistance       = 24.0
)

// Grid returns the ipad-grid plugin.
func Grid() effects.Plugin {
	return effects.Plugin{
		Name:    "ipad-grid",
		Version: Version,
		Effects: []effects.Definition{
			{
				Name:         "ipad-grid-select",
				Description:  "Selected tile grows and brightens while its siblings move away and dim",
				BaseDuration: gridSelectDuration,
				Requires:     []string{effects.OptSelectedIndex},
				Variants: map[string]effects.Variant{
					"subtle": {
						Description: "Shorter and gentler",
						Overrides:   effects.Options{Intensity: effects.IntensitySubtle, Duration: 500 * time.Millisecond},
					},
					"dramatic": {
						Description: "Strong push with overshoot",
						Overrides:   effects.Options{Intensity: effects.IntensityStrong, Easing: timeline.EaseOutBack},
					},
					"cascade": {
						Description: "Siblings leave from the group centre outwards",
						Overrides:   effects.Options{Spread: effects.SpreadCenter, Stagger: 60 * time.Millisecond},
					},
				},
				Build:    buildGridSelect,
				Fallback: gridSelectFallback,
			},
			{
				Name:         "ipad-grid-reset",
				Description:  "Return every tile to its resting state",
				BaseDuration: gridResetDuration,
				Build:        buildGridReset,
				Fallback:     instant(host.Identity()),
			},
		},
	}
}

// gridPose is the resting value of one tile after selection.
type gridPose struct {
	selected host.Properties
	others   func(dx, dy float64) host.Properties
}

func gridPoses(m float64) gridPose {
	return gridPose{
		selected: host.Properties{
			host.PropX:          0,
			host.PropY:          0,
			host.PropScale:      1 + 0.08*m,
			host.PropOpacity:    1,
			host.PropBrightness: 1 + 0.15*m,
		},
		others: func(dx, dy float64) host.Properties {
			return host.Properties{
				host.PropX:          dx,
				host.PropY:          dy,
				host.PropScale:      1 - 0.04*m,
				host.PropOpacity:    math.Max(0, 1-0.45*m),
				host.PropBrightness: math.Max(0, 1-0.3*m),
			}
		},
	}
}

func selectedIndex(req effects.Request) (int, error) {
	if err := requireTargets(req); err != nil {
		return 0, err
	}
	sel := *req.Options.SelectedIndex
	if sel >= len(req.Targets) {
		return 0, fmt.Errorf("selected index %d out of range for %d targets", sel, len(req.Targets))
	}
	return sel, nil
}

func buildGridSelect(req effects.Request) (*timeline.Timeline, error) {
	sel, err := selectedIndex(req)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	m := req.Multiplier()
	d := opts.DurationOr(gridSelectDuration)
	easing := opts.EasingOr(timeline.Power2Out)
	dist := opts.DistanceOr(gridDistance) * m
	poses := gridPoses(m)

	vectors := gridVectors(req.Targets, sel, opts)
	ranks := gridRanks(req.Targets, sel, opts)

	maxRank := 0
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}
	stagger := opts.StaggerOr(gridStagger)
	if maxRank > 0 && stagger*time.Duration(maxRank) > d/2 {
		stagger = d / 2 / time.Duration(maxRank)
	}

	tl := timeline.New(req.Effect)
	for i, h := range req.Targets {
		if i == sel {
			tl.Add(timeline.Step{Target: h, To: poses.selected, Duration: d, Easing: easing})
			continue
		}
		offset := stagger * time.Duration(ranks[i])
		v := vectors[i]
		tl.Add(timeline.Step{
			Target:   h,
			To:       poses.others(v[0]*dist, v[1]*dist),
			Offset:   offset,
			Duration: d - offset,
			Easing:   easing,
		})
	}
	return tl, nil
}

func gridSelectFallback(req effects.Request) (*timeline.Timeline, error) {
	sel, err := selectedIndex(req)
	if err != nil {
		return nil, err
	}
	poses := gridPoses(req.Multiplier())
	dist := req.Options.DistanceOr(gridDistance) * req.Multiplier()
	vectors := gridVectors(req.Targets, sel, req.Options)

	tl := timeline.New(req.Effect)
	for i, h := range req.Targets {
		to := poses.selected
		if i != sel {
			to = poses.others(vectors[i][0]*dist, vectors[i][1]*dist)
		}
		tl.Add(timeline.Step{Target: h, To: to})
	}
	return tl, nil
}

// gridVectors returns the unit push direction of every tile.
func gridVectors(targets []host.Handle, sel int, opts effects.Options) [][2]float64 {
	out := make([][2]float64, len(targets))

	switch opts.Spread {
	case effects.SpreadCenter:
		var cx, cy float64
		for _, h := range targets {
			x, y := h.Bounds.Center()
			cx += x
			cy += y
		}
		cx /= float64(len(targets))
		cy /= float64(len(targets))
		sx, sy := targets[sel].Bounds.Center()
		for i, h := range targets {
			x, y := h.Bounds.Center()
			dx, dy := x-cx, y-cy
			if dx == 0 && dy == 0 {
				dx, dy = x-sx, y-sy
			}
			out[i] = unit(dx, dy, i < sel)
		}

	case effects.SpreadRandom:
		rng := seeded(opts.Seed)
		for i := range targets {
			angle := rng.Float64() * 2 * math.Pi
			out[i] = [2]float64{math.Cos(angle), math.Sin(angle)}
		}

	default:
		for i := range targets {
			out[i] = directionVector(opts.Direction, i < sel)
		}
	}
	return out
}

// directionVector pushes along a fixed edge, or horizontally away from the
// selected tile when no direction is given.
func directionVector(d effects.Direction, before bool) [2]float64 {
	switch d {
	case effects.DirectionLeft:
		return [2]float64{-1, 0}
	case effects.DirectionRight:
		return [2]float64{1, 0}
	case effects.DirectionUp:
		return [2]float64{0, -1}
	case effects.DirectionDown:
		return [2]float64{0, 1}
	}
	if before {
		return [2]float64{-1, 0}
	}
	return [2]float64{1, 0}
}

func unit(dx, dy float64, before bool) [2]float64 {
	l := math.Hypot(dx, dy)
	if l == 0 {
		return directionVector("", before)
	}
	return [2]float64{dx / l, dy / l}
}

// gridRanks orders tiles for staggering. The selected tile is rank 0 and
// siblings start from 1.
func gridRanks(targets []host.Handle, sel int, opts effects.Options) []int {
	ranks := make([]int, len(targets))

	switch opts.Spread {
	case effects.SpreadCenter:
		sx, sy := targets[sel].Bounds.Center()
		idx := siblings(len(targets), sel)
		dist := func(i int) float64 {
			x, y := targets[i].Bounds.Center()
			return math.Hypot(x-sx, y-sy)
		}
		sort.SliceStable(idx, func(a, b int) bool { return dist(idx[a]) < dist(idx[b]) })
		for r, i := range idx {
			ranks[i] = r + 1
		}

	case effects.SpreadRandom:
		idx := siblings(len(targets), sel)
		rng := seeded(opts.Seed + 1)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for r, i := range idx {
			ranks[i] = r + 1
		}

	default:
		for i := range targets {
			if i < sel {
				ranks[i] = sel - i
			} else {
				ranks[i] = i - sel
			}
		}
	}
	return ranks
}

func siblings(n, sel int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != sel {
			out = append(out, i)
		}
	}
	return out
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

func buildGridReset(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(gridResetDuration)
	easing := req.Options.EasingOr(timeline.Power2Out)

	tl := timeline.New(req.Effect)
	for _, h := range req.Targets {
		tl.Add(timeline.Step{Target: h, To: host.Identity(), Duration: d, Easing: easing})
	}
	return tl, nil
}
