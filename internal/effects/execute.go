package effects

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// Sequence is how Compose arranges its children.
type Sequence string

// Composition sequences.
const (
	Parallel   Sequence = "parallel"
	Sequential Sequence = "sequential"
	Staggered  Sequence = "staggered"
)

// defaultComposeStagger separates staggered children when none is given.
const defaultComposeStagger = 100 * time.Millisecond

// previewFactor compresses a full build when an effect has no preview builder.
const previewFactor = 0.5

// Composition configures Compose.
type Composition struct {
	Sequence Sequence
	Stagger  time.Duration
	// Timing, when set for a child, is its explicit start offset and
	// overrides the sequence.
	Timing []time.Duration
}

// Execute builds the timeline for effect against targets.
//
// The active variant's overrides are merged underneath opts. When the host
// prefers reduced motion or the degrader asks to skip, the result is the
// collapsed instant form. A builder error or panic falls back to the
// definition's fallback unless opts.FallbackOnError is false.
//
// Returns:
//   - ErrEffectNotFound for an unknown effect
//   - ErrInvalidOptions or ErrMissingOption for bad options
//   - ErrBuildFailed when the builder and fallback both fail
func (r *Registry) Execute(effect string, targets []host.Handle, opts Options) (*timeline.Timeline, error) {
	def, variant, degrader, ok := r.lookup(effect)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEffectNotFound, effect)
	}

	merged := opts
	if variant != nil {
		merged = variant.Overrides.Merge(opts)
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", effect, err)
	}
	for _, field := range def.Requires {
		if !merged.Has(field) {
			return nil, fmt.Errorf("%w: %s needs %s", ErrMissingOption, effect, field)
		}
	}

	tl, err := r.build(def, def.Build, targets, merged)
	if err != nil {
		if def.Fallback == nil || !merged.fallbackOnError() {
			r.recordError(effect, err, false)
			r.logger.Error("effect build failed", "effect", effect, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrBuildFailed, effect, err)
		}

		r.logger.Warn("effect build failed, using fallback", "effect", effect, "error", err)
		fallbackTL, fallbackErr := r.build(def, def.Fallback, targets, merged)
		if fallbackErr != nil {
			joined := errors.Join(err, fallbackErr)
			r.recordError(effect, joined, true)
			r.logger.Error("effect fallback failed", "effect", effect, "error", fallbackErr)
			return nil, fmt.Errorf("%w: %s: %w", ErrBuildFailed, effect, joined)
		}
		r.recordError(effect, err, true)
		tl = fallbackTL
	}

	if variant != nil && variant.Post != nil {
		variant.Post(tl)
	}
	if merged.Delay > 0 {
		tl.Shift(merged.Delay)
	}

	if merged.respectReducedMotion() && r.reduceMotion(degrader) {
		r.logger.Debug("effect collapsed for reduced motion", "effect", effect)
		tl = tl.Collapse()
	}
	return tl, nil
}

func (r *Registry) reduceMotion(degrader Degrader) bool {
	if r.env != nil && r.env.PrefersReducedMotion() {
		return true
	}
	return degrader != nil && degrader.ShouldSkip()
}

// build runs one builder inside a fresh arena, converting panics to errors
// and releasing helpers on failure.
func (r *Registry) build(def Definition, fn BuildFunc, targets []host.Handle, opts Options) (tl *timeline.Timeline, err error) {
	arena := host.NewArena(r.env)
	defer func() {
		if rec := recover(); rec != nil {
			tl = nil
			err = fmt.Errorf("builder panicked: %v", rec)
		}
		if err != nil {
			arena.Release()
		}
	}()

	tl, err = fn(Request{
		Effect:  def.Name,
		Targets: targets,
		Options: opts,
		Env:     r.env,
		Arena:   arena,
	})
	if err != nil {
		return nil, err
	}
	if tl == nil {
		return nil, errors.New("builder returned no timeline")
	}
	if tl.Name == "" {
		tl.Name = def.Name
	}
	if tl.Resources == nil {
		tl.Resources = arena
	} else if tl.Resources != arena {
		tl.Adopt(arena)
	}
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

// Compose builds several effects against the same targets and combines
// them into one timeline. Children that fail to build or are not
// composable are skipped. When every child collapsed for reduced motion
// the composition is instant too: sequencing offsets are dropped.
func (r *Registry) Compose(names []string, targets []host.Handle, c Composition, opts Options) (*timeline.Timeline, error) {
	type child struct {
		name      string
		priority  int
		tl        *timeline.Timeline
		collapsed bool
	}

	var children []child
	for _, name := range names {
		def, _, degrader, ok := r.lookup(name)
		if !ok {
			r.logger.Warn("composition skipped unknown effect", "effect", name)
			continue
		}
		if !def.Composable {
			r.logger.Warn("composition skipped non-composable effect", "effect", name)
			continue
		}
		tl, err := r.Execute(name, targets, opts)
		if err != nil {
			r.logger.Warn("composition child failed", "effect", name, "error", err)
			continue
		}
		children = append(children, child{
			name:      name,
			priority:  def.Priority,
			tl:        tl,
			collapsed: tl.Instant() && r.reduceMotion(degrader),
		})
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrCompositionEmpty, names)
	}
	instant := true
	for _, ch := range children {
		instant = instant && ch.collapsed
	}

	seq := c.Sequence
	if seq == "" {
		seq = Parallel
	}
	stagger := c.Stagger
	if stagger <= 0 {
		stagger = defaultComposeStagger
	}

	// Equal-time writes resolve by step order, so higher priority goes last.
	if seq == Parallel && len(c.Timing) == 0 {
		sort.SliceStable(children, func(i, j int) bool { return children[i].priority < children[j].priority })
	}

	out := timeline.New("compose")
	var starts, completes []func()
	cursor := time.Duration(0)
	for i, ch := range children {
		var at time.Duration
		switch seq {
		case Sequential:
			at = cursor
		case Staggered:
			at = time.Duration(i) * stagger
		}
		if i < len(c.Timing) {
			at = c.Timing[i]
		}
		if instant {
			at = 0
		}
		out.Merge(ch.tl, at)
		cursor = at + ch.tl.Total
		if ch.tl.OnStart != nil {
			starts = append(starts, ch.tl.OnStart)
		}
		if ch.tl.OnComplete != nil {
			completes = append(completes, ch.tl.OnComplete)
		}
	}
	out.OnStart = chain(starts)
	out.OnComplete = chain(completes)
	return out, nil
}

func chain(fns []func()) func() {
	if len(fns) == 0 {
		return nil
	}
	return func() {
		for _, fn := range fns {
			fn()
		}
	}
}

// Preview builds a cheap rendition of an effect for catalogue UIs: the
// preview builder when defined, otherwise the full build at half length.
func (r *Registry) Preview(effect string, targets []host.Handle, opts Options) (*timeline.Timeline, error) {
	def, _, _, ok := r.lookup(effect)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEffectNotFound, effect)
	}
	if def.Preview != nil {
		tl, err := r.build(def, def.Preview, targets, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s preview: %w", ErrBuildFailed, effect, err)
		}
		return tl, nil
	}

	tl, err := r.Execute(effect, targets, opts)
	if err != nil {
		return nil, err
	}
	return tl.Stretch(previewFactor), nil
}
