package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
)

// Player advances one timeline against a host. It is not safe for
// concurrent use; the queue serialises access to it.
type Player struct {
	tl  *Timeline
	env host.Environment

	start    time.Time
	pausedAt time.Time
	paused   bool
	started  bool
	finished bool

	begun []bool
	done  []bool
	from  []host.Properties
}

// NewPlayer prepares tl for playback.
func NewPlayer(tl *Timeline, env host.Environment) *Player {
	return &Player{
		tl:    tl,
		env:   env,
		begun: make([]bool, len(tl.Steps)),
		done:  make([]bool, len(tl.Steps)),
		from:  make([]host.Properties, len(tl.Steps)),
	}
}

// Timeline returns the timeline being played.
func (p *Player) Timeline() *Timeline {
	return p.tl
}

// Start anchors the timeline clock at now.
func (p *Player) Start(now time.Time) {
	p.start = now
	p.started = true
}

// Started reports whether Start was called.
func (p *Player) Started() bool {
	return p.started
}

// Elapsed is the timeline time at now, excluding paused spans.
func (p *Player) Elapsed(now time.Time) time.Duration {
	if !p.started {
		return 0
	}
	if p.paused {
		now = p.pausedAt
	}
	if d := now.Sub(p.start); d > 0 {
		return d
	}
	return 0
}

// Pause freezes the timeline clock.
func (p *Player) Pause(now time.Time) {
	if p.paused || !p.started {
		return
	}
	p.paused = true
	p.pausedAt = now
}

// Resume continues from where Pause froze the clock.
func (p *Player) Resume(now time.Time) {
	if !p.paused {
		return
	}
	p.start = p.start.Add(now.Sub(p.pausedAt))
	p.paused = false
}

// Paused reports whether the clock is frozen.
func (p *Player) Paused() bool {
	return p.paused
}

// Finished reports whether the timeline completed.
func (p *Player) Finished() bool {
	return p.finished
}

// Advance writes the values for timeline time at now and reports whether
// the timeline has completed. Apply failures are collected and returned
// alongside; they never stop playback.
func (p *Player) Advance(now time.Time) (bool, error) {
	if p.finished {
		return true, nil
	}
	if !p.started {
		p.Start(now)
	}
	if p.paused {
		return false, nil
	}

	elapsed := p.Elapsed(now)
	var errs []error
	for i := range p.tl.Steps {
		if err := p.advanceStep(i, elapsed); err != nil {
			errs = append(errs, err)
		}
	}

	if p.complete(elapsed) {
		p.finished = true
	}
	return p.finished, errors.Join(errs...)
}

func (p *Player) complete(elapsed time.Duration) bool {
	if elapsed < p.tl.Total {
		return false
	}
	infinite := false
	for i, s := range p.tl.Steps {
		if s.Infinite() {
			infinite = true
			continue
		}
		if !p.done[i] {
			return false
		}
	}
	// A timeline made only of loops has nothing to settle and runs until killed.
	if infinite && p.tl.Total == 0 && !p.hasFinite() {
		return false
	}
	return true
}

func (p *Player) hasFinite() bool {
	for _, s := range p.tl.Steps {
		if !s.Infinite() {
			return true
		}
	}
	return false
}

func (p *Player) advanceStep(i int, elapsed time.Duration) error {
	s := p.tl.Steps[i]
	if p.done[i] || elapsed < s.Offset {
		return nil
	}

	if !p.begun[i] {
		p.begun[i] = true
		from, err := p.startValues(s)
		if err != nil {
			p.done[i] = true
			return err
		}
		p.from[i] = from
	}

	local := elapsed - s.Offset
	from := p.from[i]

	if !s.Infinite() && local >= s.Span() {
		p.done[i] = true
		return p.apply(s.Target, s.final(from))
	}
	if s.Duration == 0 {
		p.done[i] = true
		return p.apply(s.Target, s.To)
	}

	iteration := int(local / s.Duration)
	progress := float64(local%s.Duration) / float64(s.Duration)
	if s.Yoyo && iteration%2 == 1 {
		progress = 1 - progress
	}
	return p.apply(s.Target, tween(from, s.To, Ease(s.Easing)(progress)))
}

// startValues resolves the implicit From of a step by reading the target.
func (p *Player) startValues(s Step) (host.Properties, error) {
	if s.From != nil {
		return s.From, nil
	}
	current, err := p.env.Inspect(s.Target)
	if err != nil {
		return nil, fmt.Errorf("step on %s: %w", s.Target.ID, err)
	}
	identity := host.Identity()
	from := make(host.Properties, len(s.To))
	for k := range s.To {
		if v, ok := current[k]; ok {
			from[k] = v
		} else {
			from[k] = identity[k]
		}
	}
	return from, nil
}

func (p *Player) apply(h host.Handle, props host.Properties) error {
	if len(props) == 0 {
		return nil
	}
	if err := p.env.Apply(h, props); err != nil {
		return fmt.Errorf("applying to %s: %w", h.ID, err)
	}
	return nil
}

// tween interpolates every key of to. Keys missing from from start at to.
func tween(from, to host.Properties, t float64) host.Properties {
	out := make(host.Properties, len(to))
	for k, end := range to {
		begin, ok := from[k]
		if !ok {
			begin = end
		}
		out[k] = lerp(begin, end, t)
	}
	return out
}

// Finish settles every finite step at its final value. Used when a running
// timeline must end early but still leave targets in their resting state.
func (p *Player) Finish() error {
	var errs []error
	for i, s := range p.tl.Steps {
		if p.done[i] || s.Infinite() {
			continue
		}
		if !p.begun[i] {
			from, err := p.startValues(s)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.from[i] = from
			p.begun[i] = true
		}
		p.done[i] = true
		if err := p.apply(s.Target, s.final(p.from[i])); err != nil {
			errs = append(errs, err)
		}
	}
	p.finished = true
	return errors.Join(errs...)
}
