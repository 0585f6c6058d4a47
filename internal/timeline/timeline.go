package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
)

// RepeatInfinite marks a step that loops until its timeline ends.
const RepeatInfinite = -1

// ErrInvalidTimeline is returned by Validate.
var ErrInvalidTimeline = errors.New("timeline: invalid")

// Step tweens the properties of one target.
type Step struct {
	Target host.Handle
	// From is the start value. Nil means "whatever the target shows when
	// the step begins", read through the host.
	From     host.Properties
	To       host.Properties
	Offset   time.Duration
	Duration time.Duration
	Easing   string
	// Repeat is the number of extra iterations, or RepeatInfinite.
	Repeat int
	// Yoyo reverses direction on every other iteration.
	Yoyo bool
}

// Infinite reports whether the step loops forever.
func (s Step) Infinite() bool {
	return s.Repeat == RepeatInfinite
}

// Span is the time the step occupies after its offset. Infinite steps
// report a single iteration.
func (s Step) Span() time.Duration {
	if s.Repeat <= 0 {
		return s.Duration
	}
	return s.Duration * time.Duration(s.Repeat+1)
}

// End is the offset at which a finite step settles.
func (s Step) End() time.Duration {
	return s.Offset + s.Span()
}

// final is the value a finite step rests on.
func (s Step) final(from host.Properties) host.Properties {
	if s.Yoyo && s.Repeat > 0 && s.Repeat%2 == 1 {
		return from
	}
	return s.To
}

// Timeline is a named, ordered program of steps.
type Timeline struct {
	Name  string
	Steps []Step
	// Total is the time at which every finite step has settled.
	Total time.Duration

	// OnStart and OnComplete are invoked by whoever plays the timeline.
	OnStart    func()
	OnComplete func()

	// Resources owns helper elements created while building. Nil when the
	// timeline spawned none.
	Resources *host.Arena

	// adopted holds arenas of timelines merged into this one.
	adopted []*host.Arena
}

// New creates an empty timeline.
func New(name string) *Timeline {
	return &Timeline{Name: name}
}

// Add appends a step and extends Total to cover it.
func (tl *Timeline) Add(steps ...Step) *Timeline {
	for _, s := range steps {
		tl.Steps = append(tl.Steps, s)
		if !s.Infinite() && s.End() > tl.Total {
			tl.Total = s.End()
		}
	}
	return tl
}

// Shift moves every step later by d.
func (tl *Timeline) Shift(d time.Duration) *Timeline {
	if d == 0 {
		return tl
	}
	for i := range tl.Steps {
		tl.Steps[i].Offset += d
	}
	tl.Total += d
	return tl
}

// Stretch scales every offset and duration by factor. Used when a caller
// overrides the duration of a built effect.
func (tl *Timeline) Stretch(factor float64) *Timeline {
	if factor <= 0 || factor == 1 {
		return tl
	}
	scale := func(d time.Duration) time.Duration { return time.Duration(float64(d) * factor) }
	tl.Total = 0
	steps := tl.Steps
	tl.Steps = nil
	for _, s := range steps {
		s.Offset = scale(s.Offset)
		s.Duration = scale(s.Duration)
		tl.Add(s)
	}
	return tl
}

// Merge appends other's steps, offset by at, and adopts its helpers into
// tl's lifetime. other must not be played afterwards.
func (tl *Timeline) Merge(other *Timeline, at time.Duration) *Timeline {
	if other == nil {
		return tl
	}
	for _, s := range other.Steps {
		s.Offset += at
		tl.Add(s)
	}
	if other.Total+at > tl.Total {
		tl.Total = other.Total + at
	}
	tl.Adopt(other.Resources)
	tl.Adopt(other.adopted...)
	return tl
}

// Adopt ties the lifetime of arenas to tl.
func (tl *Timeline) Adopt(arenas ...*host.Arena) {
	for _, a := range arenas {
		if a != nil {
			tl.adopted = append(tl.adopted, a)
		}
	}
}

// Release disposes every helper owned by the timeline. Idempotent.
func (tl *Timeline) Release() {
	tl.Resources.Release()
	for _, a := range tl.adopted {
		a.Release()
	}
}

// Instant reports whether the timeline settles immediately.
func (tl *Timeline) Instant() bool {
	if tl.Total > 0 {
		return false
	}
	for _, s := range tl.Steps {
		if s.Infinite() {
			return false
		}
	}
	return true
}

// Targets returns the distinct target IDs touched, in first-use order.
func (tl *Timeline) Targets() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range tl.Steps {
		if _, ok := seen[s.Target.ID]; ok {
			continue
		}
		seen[s.Target.ID] = struct{}{}
		out = append(out, s.Target.ID)
	}
	return out
}

// Validate checks the structural invariants.
func (tl *Timeline) Validate() error {
	if tl == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTimeline)
	}
	for i, s := range tl.Steps {
		switch {
		case s.Target.ID == "":
			return fmt.Errorf("%w: step %d has no target", ErrInvalidTimeline, i)
		case s.Offset < 0 || s.Duration < 0:
			return fmt.Errorf("%w: step %d has negative timing", ErrInvalidTimeline, i)
		case s.Repeat < RepeatInfinite:
			return fmt.Errorf("%w: step %d has repeat %d", ErrInvalidTimeline, i, s.Repeat)
		case s.Infinite() && s.Duration == 0:
			return fmt.Errorf("%w: step %d repeats forever with zero duration", ErrInvalidTimeline, i)
		case !KnownEasing(s.Easing):
			return fmt.Errorf("%w: step %d uses unknown easing %q", ErrInvalidTimeline, i, s.Easing)
		case !s.Infinite() && s.End() > tl.Total:
			return fmt.Errorf("%w: step %d ends at %v after total %v", ErrInvalidTimeline, i, s.End(), tl.Total)
		}
	}
	return nil
}

// FinalState returns the value every target rests on after the timeline
// completes, in step order with later steps winning. A yoyo step that
// returns to an implicit start leaves its target untouched.
func (tl *Timeline) FinalState() map[string]host.Properties {
	out := make(map[string]host.Properties)
	for _, s := range tl.Steps {
		if s.Infinite() {
			continue
		}
		returns := s.Yoyo && s.Repeat > 0 && s.Repeat%2 == 1
		if returns && s.From == nil {
			continue
		}
		from := s.From
		cur := out[s.Target.ID]
		if cur == nil {
			cur = host.Properties{}
		}
		for k, v := range s.final(from) {
			cur[k] = v
		}
		out[s.Target.ID] = cur
	}
	return out
}

// Collapse returns the reduced-motion form of tl: every non-helper target
// jumps to its final value at offset zero and the timeline is instant.
// Helper steps and infinite loops are dropped and helpers released.
func (tl *Timeline) Collapse() *Timeline {
	out := New(tl.Name)
	out.OnStart = tl.OnStart
	out.OnComplete = tl.OnComplete

	final := tl.FinalState()
	handles := make(map[string]host.Handle)
	var order []string
	for _, s := range tl.Steps {
		if s.Target.Helper || s.Infinite() {
			continue
		}
		if _, ok := handles[s.Target.ID]; !ok {
			handles[s.Target.ID] = s.Target
			order = append(order, s.Target.ID)
		}
	}
	for _, id := range order {
		out.Add(Step{Target: handles[id], To: final[id]})
	}

	tl.Release()
	return out
}
