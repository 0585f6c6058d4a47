package timeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/host"
)

// ─── Helper ─────────────────────────────────────────────────────────────────

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func setupStage(t *testing.T) (*host.Stage, host.Handle, host.Handle) {
	t.Helper()

	s, err := host.NewStage(
		host.Element{ID: "a", Tag: "div", Bounds: host.Rect{Width: 10, Height: 10}},
		host.Element{ID: "b", Tag: "div"},
	)
	if err != nil {
		t.Fatalf("NewStage() error = %v", err)
	}
	return s, s.Resolve("#a")[0], s.Resolve("#b")[0]
}

func inspect(t *testing.T, s *host.Stage, h host.Handle, key string) float64 {
	t.Helper()
	props, err := s.Inspect(h)
	if err != nil {
		t.Fatalf("Inspect(%s) error = %v", h.ID, err)
	}
	return props[key]
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ─── Structure ──────────────────────────────────────────────────────────────

func TestTimeline_AddExtendsTotal(t *testing.T) {
	_, a, b := setupStage(t)

	tl := New("t").Add(
		Step{Target: a, To: host.Properties{host.PropX: 10}, Duration: 300 * time.Millisecond},
		Step{Target: b, To: host.Properties{host.PropX: 10}, Offset: 100 * time.Millisecond, Duration: 200 * time.Millisecond, Repeat: 1},
		Step{Target: b, To: host.Properties{host.PropGlow: 1}, Duration: time.Second, Repeat: RepeatInfinite},
	)

	if tl.Total != 500*time.Millisecond {
		t.Errorf("Total = %v, want 500ms", tl.Total)
	}
	if err := tl.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestTimeline_Validate(t *testing.T) {
	_, a, _ := setupStage(t)

	tests := []struct {
		name string
		tl   *Timeline
	}{
		{
			name: "step past total",
			tl:   &Timeline{Steps: []Step{{Target: a, Duration: time.Second}}, Total: 500 * time.Millisecond},
		},
		{
			name: "missing target",
			tl:   New("x").Add(Step{Duration: time.Second}),
		},
		{
			name: "unknown easing",
			tl:   New("x").Add(Step{Target: a, Duration: time.Second, Easing: "bouncy"}),
		},
		{
			name: "infinite zero duration",
			tl:   New("x").Add(Step{Target: a, Repeat: RepeatInfinite}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tl.Validate(); !errors.Is(err, ErrInvalidTimeline) {
				t.Errorf("Validate() error = %v, want ErrInvalidTimeline", err)
			}
		})
	}
}

func TestTimeline_MergeAndShift(t *testing.T) {
	_, a, b := setupStage(t)

	first := New("first").Add(Step{Target: a, To: host.Properties{host.PropX: 1}, Duration: 200 * time.Millisecond})
	second := New("second").Add(Step{Target: b, To: host.Properties{host.PropX: 1}, Duration: 200 * time.Millisecond})

	first.Merge(second, first.Total)
	if first.Total != 400*time.Millisecond {
		t.Errorf("Total after merge = %v, want 400ms", first.Total)
	}
	if first.Steps[1].Offset != 200*time.Millisecond {
		t.Errorf("merged offset = %v, want 200ms", first.Steps[1].Offset)
	}

	first.Shift(100 * time.Millisecond)
	if first.Steps[0].Offset != 100*time.Millisecond || first.Total != 500*time.Millisecond {
		t.Errorf("after shift: offset %v total %v", first.Steps[0].Offset, first.Total)
	}
}

func TestTimeline_Stretch(t *testing.T) {
	_, a, _ := setupStage(t)

	tl := New("t").Add(Step{Target: a, To: host.Properties{host.PropX: 1}, Offset: 100 * time.Millisecond, Duration: 400 * time.Millisecond})
	tl.Stretch(2)

	if tl.Total != time.Second {
		t.Errorf("Total = %v, want 1s", tl.Total)
	}
	if tl.Steps[0].Offset != 200*time.Millisecond {
		t.Errorf("Offset = %v, want 200ms", tl.Steps[0].Offset)
	}
}

// ─── Playback ───────────────────────────────────────────────────────────────

func TestPlayer_Interpolates(t *testing.T) {
	s, a, _ := setupStage(t)

	tl := New("move").Add(Step{Target: a, To: host.Properties{host.PropX: 100}, Duration: time.Second})
	p := NewPlayer(tl, s)

	if done, err := p.Advance(epoch); done || err != nil {
		t.Fatalf("Advance(0) = %v, %v", done, err)
	}
	if done, _ := p.Advance(epoch.Add(500 * time.Millisecond)); done {
		t.Fatal("finished at half time")
	}
	if got := inspect(t, s, a, host.PropX); !approx(got, 50) {
		t.Errorf("x at 50%% = %v, want 50", got)
	}

	done, err := p.Advance(epoch.Add(time.Second))
	if !done || err != nil {
		t.Fatalf("Advance(end) = %v, %v", done, err)
	}
	if got := inspect(t, s, a, host.PropX); got != 100 {
		t.Errorf("x at end = %v, want 100", got)
	}
}

func TestPlayer_PauseResume(t *testing.T) {
	s, a, _ := setupStage(t)

	tl := New("move").Add(Step{Target: a, To: host.Properties{host.PropX: 100}, Duration: time.Second})
	p := NewPlayer(tl, s)

	p.Advance(epoch)
	p.Advance(epoch.Add(250 * time.Millisecond))
	p.Pause(epoch.Add(250 * time.Millisecond))

	// Ticks while paused change nothing.
	p.Advance(epoch.Add(5 * time.Second))
	if got := inspect(t, s, a, host.PropX); !approx(got, 25) {
		t.Errorf("x while paused = %v, want 25", got)
	}

	p.Resume(epoch.Add(5 * time.Second))
	p.Advance(epoch.Add(5*time.Second + 250*time.Millisecond))
	if got := inspect(t, s, a, host.PropX); !approx(got, 50) {
		t.Errorf("x after resume = %v, want 50", got)
	}
	if p.Elapsed(epoch.Add(5*time.Second+250*time.Millisecond)) != 500*time.Millisecond {
		t.Errorf("Elapsed() did not exclude paused span")
	}
}

func TestPlayer_YoyoReturnsToStart(t *testing.T) {
	s, a, _ := setupStage(t)

	tl := New("pulse").Add(Step{Target: a, To: host.Properties{host.PropScale: 2}, Duration: 100 * time.Millisecond, Repeat: 1, Yoyo: true})
	p := NewPlayer(tl, s)

	p.Advance(epoch)
	p.Advance(epoch.Add(100 * time.Millisecond))
	if got := inspect(t, s, a, host.PropScale); !approx(got, 2) {
		t.Errorf("scale at peak = %v, want 2", got)
	}
	done, _ := p.Advance(epoch.Add(200 * time.Millisecond))
	if !done {
		t.Fatal("yoyo step did not finish")
	}
	if got := inspect(t, s, a, host.PropScale); got != 1 {
		t.Errorf("scale after yoyo = %v, want 1", got)
	}
}

func TestPlayer_InfiniteOnlyRunsUntilKilled(t *testing.T) {
	s, a, _ := setupStage(t)

	tl := New("glow").Add(Step{Target: a, To: host.Properties{host.PropGlow: 1}, Duration: 100 * time.Millisecond, Repeat: RepeatInfinite, Yoyo: true})
	p := NewPlayer(tl, s)

	for i := range 50 {
		if done, _ := p.Advance(epoch.Add(time.Duration(i) * 37 * time.Millisecond)); done {
			t.Fatalf("infinite timeline finished at tick %d", i)
		}
	}
}

func TestPlayer_InfiniteStopsWithFiniteSiblings(t *testing.T) {
	s, a, b := setupStage(t)

	tl := New("mixed").Add(
		Step{Target: a, To: host.Properties{host.PropX: 10}, Duration: 200 * time.Millisecond},
		Step{Target: b, To: host.Properties{host.PropGlow: 1}, Duration: 50 * time.Millisecond, Repeat: RepeatInfinite},
	)
	p := NewPlayer(tl, s)

	p.Advance(epoch)
	if done, _ := p.Advance(epoch.Add(200 * time.Millisecond)); !done {
		t.Error("timeline with settled finite steps should complete")
	}
}

func TestPlayer_MissingTargetReportsButContinues(t *testing.T) {
	s, a, _ := setupStage(t)

	tl := New("t").Add(
		Step{Target: host.Handle{ID: "ghost"}, To: host.Properties{host.PropX: 1}, Duration: 100 * time.Millisecond},
		Step{Target: a, To: host.Properties{host.PropX: 1}, Duration: 100 * time.Millisecond},
	)
	p := NewPlayer(tl, s)

	_, err := p.Advance(epoch)
	if !errors.Is(err, host.ErrTargetNotFound) {
		t.Errorf("Advance() error = %v, want ErrTargetNotFound", err)
	}
	done, _ := p.Advance(epoch.Add(100 * time.Millisecond))
	if !done {
		t.Error("timeline should still complete")
	}
	if got := inspect(t, s, a, host.PropX); got != 1 {
		t.Errorf("x = %v, want 1", got)
	}
}

// ─── Reduced motion ─────────────────────────────────────────────────────────

func TestTimeline_Collapse(t *testing.T) {
	s, a, b := setupStage(t)
	arena := host.NewArena(s)
	particle, err := arena.Spawn("particle", a)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	tl := New("busy").Add(
		Step{Target: a, To: host.Properties{host.PropScale: 1.1}, Duration: 300 * time.Millisecond},
		Step{Target: a, To: host.Properties{host.PropOpacity: 0.5}, Offset: 200 * time.Millisecond, Duration: 300 * time.Millisecond},
		Step{Target: b, To: host.Properties{host.PropX: 40}, Duration: 500 * time.Millisecond, Easing: EaseInOutCubic},
		Step{Target: particle, To: host.Properties{host.PropX: 30}, Duration: 500 * time.Millisecond},
		Step{Target: b, To: host.Properties{host.PropGlow: 1}, Duration: 100 * time.Millisecond, Repeat: RepeatInfinite},
	)
	tl.Resources = arena

	c := tl.Collapse()

	if c.Total != 0 || !c.Instant() {
		t.Errorf("collapsed Total = %v, Instant = %v", c.Total, c.Instant())
	}
	if len(c.Steps) != 2 {
		t.Fatalf("collapsed steps = %d, want 2 (one per real target)", len(c.Steps))
	}
	if c.Steps[0].To[host.PropScale] != 1.1 || c.Steps[0].To[host.PropOpacity] != 0.5 {
		t.Errorf("collapsed a = %v", c.Steps[0].To)
	}
	if s.HelperCount() != 0 {
		t.Errorf("helpers left after collapse: %d", s.HelperCount())
	}

	p := NewPlayer(c, s)
	if done, err := p.Advance(epoch); !done || err != nil {
		t.Fatalf("collapsed Advance() = %v, %v", done, err)
	}
	if got := inspect(t, s, b, host.PropX); got != 40 {
		t.Errorf("b.x = %v, want 40", got)
	}
}

func TestEasing_Endpoints(t *testing.T) {
	for _, name := range Easings() {
		t.Run(name, func(t *testing.T) {
			fn := Ease(name)
			if !approx(fn(0), 0) || !approx(fn(1), 1) {
				t.Errorf("%s(0)=%v %s(1)=%v, want 0 and 1", name, fn(0), name, fn(1))
			}
		})
	}
}
