package effects

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// captureLogger records warnings so tests can assert on advisory paths.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}
func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *captureLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

type staticDegrader bool

func (d staticDegrader) ShouldSkip() bool { return bool(d) }

// ─── Helper ─────────────────────────────────────────────────────────────────

func fade(name string, d time.Duration) Definition {
	return Definition{
		Name:         name,
		BaseDuration: d,
		Composable:   true,
		Variants: map[string]Variant{
			"slow": {Overrides: Options{Duration: 2 * d}},
		},
		Build: func(req Request) (*timeline.Timeline, error) {
			tl := timeline.New(req.Effect)
			for _, h := range req.Targets {
				tl.Add(timeline.Step{
					Target:   h,
					To:       host.Properties{host.PropOpacity: 0.5},
					Duration: req.Options.DurationOr(d),
				})
			}
			return tl, nil
		},
	}
}

func setupRegistry(t *testing.T) (*Registry, *host.Stage, *captureLogger) {
	t.Helper()

	stage, err := host.NewStage(
		host.Element{ID: "a", Tag: "div", Classes: []string{"item"}},
		host.Element{ID: "b", Tag: "div", Classes: []string{"item"}},
	)
	if err != nil {
		t.Fatalf("NewStage() error = %v", err)
	}

	log := &captureLogger{}
	reg := NewRegistry(stage)
	reg.SetLogger(log)
	if err := reg.RegisterPlugin(Plugin{
		Name:    "test",
		Version: "1.0.0",
		Effects: []Definition{fade("fade", 200*time.Millisecond), fade("dim", 300*time.Millisecond)},
	}); err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}
	return reg, stage, log
}

// ─── Registration ───────────────────────────────────────────────────────────

func TestRegisterPlugin_Validation(t *testing.T) {
	reg, _, _ := setupRegistry(t)

	tests := []struct {
		name    string
		plugin  Plugin
		wantErr error
	}{
		{
			name:    "missing name",
			plugin:  Plugin{},
			wantErr: ErrInvalidPlugin,
		},
		{
			name:    "duplicate plugin",
			plugin:  Plugin{Name: "test"},
			wantErr: ErrPluginExists,
		},
		{
			name:    "effect owned elsewhere",
			plugin:  Plugin{Name: "other", Effects: []Definition{fade("fade", time.Second)}},
			wantErr: ErrEffectExists,
		},
		{
			name:    "no builder",
			plugin:  Plugin{Name: "broken", Effects: []Definition{{Name: "x"}}},
			wantErr: ErrInvalidDefinition,
		},
		{
			name: "bad variant option",
			plugin: Plugin{Name: "broken", Effects: []Definition{{
				Name:     "x",
				Build:    fade("x", time.Second).Build,
				Variants: map[string]Variant{"loud": {Overrides: Options{Intensity: "extreme"}}},
			}}},
			wantErr: ErrInvalidDefinition,
		},
		{
			name: "unknown required field",
			plugin: Plugin{Name: "broken", Effects: []Definition{{
				Name:     "x",
				Build:    fade("x", time.Second).Build,
				Requires: []string{"colour"},
			}}},
			wantErr: ErrInvalidDefinition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.RegisterPlugin(tt.plugin); !errors.Is(err, tt.wantErr) {
				t.Errorf("RegisterPlugin() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if reg.Has("x") {
		t.Error("failed registration leaked an effect")
	}
}

func TestRegisterPlugin_MissingDependencyWarns(t *testing.T) {
	reg, _, log := setupRegistry(t)

	err := reg.RegisterPlugin(Plugin{Name: "extra", Dependencies: []string{"nope"}, Effects: []Definition{fade("glow", time.Second)}})
	if err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}
	if !reg.Has("glow") {
		t.Error("effect not registered")
	}
	if len(log.warnings()) == 0 {
		t.Error("expected a missing-dependency warning")
	}
}

func TestRegisterPlugin_HookPanicIsContained(t *testing.T) {
	reg, _, log := setupRegistry(t)

	err := reg.RegisterPlugin(Plugin{
		Name:       "hooked",
		Effects:    []Definition{fade("glow", time.Second)},
		OnRegister: func(*Registry) error { panic("boom") },
	})
	if err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}
	if !reg.Has("glow") {
		t.Error("hook panic undid registration")
	}
	if len(log.errs) != 1 {
		t.Errorf("logged errors = %d, want 1", len(log.errs))
	}
}

func TestUnregisterPlugin(t *testing.T) {
	reg, _, _ := setupRegistry(t)

	if err := reg.SetVariant("fade", "slow"); err != nil {
		t.Fatalf("SetVariant() error = %v", err)
	}
	if err := reg.UnregisterPlugin("test"); err != nil {
		t.Fatalf("UnregisterPlugin() error = %v", err)
	}
	if reg.Has("fade") {
		t.Error("effect survived unregister")
	}
	if _, ok := reg.ActiveVariant("fade"); ok {
		t.Error("variant selection survived unregister")
	}
	if err := reg.UnregisterPlugin("test"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("second UnregisterPlugin() error = %v, want ErrPluginNotFound", err)
	}
}

// ─── Variants ───────────────────────────────────────────────────────────────

func TestVariants(t *testing.T) {
	reg, stage, log := setupRegistry(t)
	targets := stage.Resolve("#a")

	if err := reg.SetVariant("fade", "loud"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("SetVariant(unknown) error = %v, want ErrUnknownVariant", err)
	}
	if len(log.warnings()) == 0 {
		t.Error("unknown variant should warn")
	}
	if _, ok := reg.ActiveVariant("fade"); ok {
		t.Error("unknown variant changed selection")
	}

	if err := reg.SetVariant("fade", "slow"); err != nil {
		t.Fatalf("SetVariant() error = %v", err)
	}
	tl, err := reg.Execute("fade", targets, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tl.Total != 400*time.Millisecond {
		t.Errorf("variant Total = %v, want 400ms", tl.Total)
	}

	// Caller options win over the variant.
	tl, err = reg.Execute("fade", targets, Options{Duration: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tl.Total != 50*time.Millisecond {
		t.Errorf("caller Total = %v, want 50ms", tl.Total)
	}

	reg.ClearVariant("fade")
	if diff := cmp.Diff(map[string]string{}, reg.ActiveVariants()); diff != "" {
		t.Errorf("ActiveVariants() mismatch (-want +got):\n%s", diff)
	}
}

// ─── Execute ────────────────────────────────────────────────────────────────

func TestExecute_NotFound(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	_, err := reg.Execute("warp", stage.Resolve(".item"), Options{})
	if !errors.Is(err, ErrEffectNotFound) {
		t.Errorf("Execute() error = %v, want ErrEffectNotFound", err)
	}
}

func TestExecute_MissingRequiredOption(t *testing.T) {
	reg, stage, _ := setupRegistry(t)
	def := fade("pick", time.Second)
	def.Requires = []string{OptSelectedIndex}
	if err := reg.RegisterPlugin(Plugin{Name: "pick", Effects: []Definition{def}}); err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}

	if _, err := reg.Execute("pick", stage.Resolve(".item"), Options{}); !errors.Is(err, ErrMissingOption) {
		t.Errorf("Execute() error = %v, want ErrMissingOption", err)
	}
	if _, err := reg.Execute("pick", stage.Resolve(".item"), Options{SelectedIndex: Int(0)}); err != nil {
		t.Errorf("Execute() with option error = %v", err)
	}
}

func TestExecute_FallbackAfterPanic(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	spawned := 0
	err := reg.RegisterPlugin(Plugin{Name: "flaky", Effects: []Definition{{
		Name: "flaky",
		Build: func(req Request) (*timeline.Timeline, error) {
			if _, err := req.Arena.Spawn("particle", req.Targets[0]); err != nil {
				return nil, err
			}
			spawned++
			panic("renderer exploded")
		},
		Fallback: func(req Request) (*timeline.Timeline, error) {
			return timeline.New("").Add(timeline.Step{Target: req.Targets[0], To: host.Properties{host.PropOpacity: 1}}), nil
		},
	}}})
	if err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}

	tl, err := reg.Execute("flaky", stage.Resolve("#a"), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !tl.Instant() {
		t.Error("expected the instant fallback timeline")
	}
	if spawned != 1 || stage.HelperCount() != 0 {
		t.Errorf("helpers after failed build = %d, want 0", stage.HelperCount())
	}

	events := reg.RecentErrors()
	if len(events) != 1 || !events[0].FallbackUsed {
		t.Errorf("RecentErrors() = %+v, want one fallback event", events)
	}
}

func TestExecute_BuildFailedWithoutFallback(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	boom := errors.New("boom")
	if err := reg.RegisterPlugin(Plugin{Name: "bad", Effects: []Definition{{
		Name:  "bad",
		Build: func(Request) (*timeline.Timeline, error) { return nil, boom },
	}}}); err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}

	_, err := reg.Execute("bad", stage.Resolve("#a"), Options{})
	if !errors.Is(err, ErrBuildFailed) || !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want ErrBuildFailed wrapping cause", err)
	}
}

func TestExecute_ReducedMotion(t *testing.T) {
	tests := []struct {
		name     string
		reduced  bool
		degrade  bool
		opts     Options
		wantZero bool
	}{
		{name: "full motion", wantZero: false},
		{name: "host prefers reduced", reduced: true, wantZero: true},
		{name: "frames too slow", degrade: true, wantZero: true},
		{name: "caller opts out", reduced: true, opts: Options{RespectReducedMotion: Bool(false)}, wantZero: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, stage, _ := setupRegistry(t)
			stage.SetReducedMotion(tt.reduced)
			reg.SetDegrader(staticDegrader(tt.degrade))

			tl, err := reg.Execute("fade", stage.Resolve(".item"), tt.opts)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := tl.Total == 0; got != tt.wantZero {
				t.Errorf("Total = %v, want zero = %v", tl.Total, tt.wantZero)
			}
		})
	}
}

func TestExecute_DelayShiftsTimeline(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	tl, err := reg.Execute("fade", stage.Resolve("#a"), Options{Delay: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tl.Steps[0].Offset != 100*time.Millisecond || tl.Total != 300*time.Millisecond {
		t.Errorf("offset %v total %v, want 100ms and 300ms", tl.Steps[0].Offset, tl.Total)
	}
}

// ─── Compose ────────────────────────────────────────────────────────────────

func TestCompose_Staggered(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	tl, err := reg.Compose([]string{"fade", "dim"}, stage.Resolve("#a"), Composition{Sequence: Staggered}, Options{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(tl.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(tl.Steps))
	}
	if tl.Steps[0].Offset != 0 {
		t.Errorf("first offset = %v, want 0", tl.Steps[0].Offset)
	}
	if tl.Steps[1].Offset != 100*time.Millisecond {
		t.Errorf("second offset = %v, want 100ms", tl.Steps[1].Offset)
	}
}

func TestCompose_Sequential(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	tl, err := reg.Compose([]string{"fade", "dim"}, stage.Resolve("#a"), Composition{Sequence: Sequential}, Options{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if tl.Steps[1].Offset != 200*time.Millisecond || tl.Total != 500*time.Millisecond {
		t.Errorf("second offset %v total %v, want 200ms and 500ms", tl.Steps[1].Offset, tl.Total)
	}
}

func TestCompose_ParallelOrdersByPriority(t *testing.T) {
	reg, stage, _ := setupRegistry(t)
	hi := fade("shine", 100*time.Millisecond)
	hi.Priority = 10
	lo := fade("shade", 100*time.Millisecond)
	lo.Priority = 1
	if err := reg.RegisterPlugin(Plugin{Name: "prio", Effects: []Definition{hi, lo}}); err != nil {
		t.Fatalf("RegisterPlugin() error = %v", err)
	}

	tl, err := reg.Compose([]string{"shine", "shade"}, stage.Resolve("#a"), Composition{}, Options{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if tl.Steps[0].Offset != 0 || tl.Steps[1].Offset != 0 {
		t.Error("parallel children should start together")
	}
	if tl.Name != "compose" || len(tl.Steps) != 2 {
		t.Fatalf("unexpected composition %q with %d steps", tl.Name, len(tl.Steps))
	}
}

func TestCompose_ReducedMotionIsInstant(t *testing.T) {
	tests := []struct {
		name string
		comp Composition
	}{
		{name: "staggered", comp: Composition{Sequence: Staggered, Stagger: 150 * time.Millisecond}},
		{name: "sequential", comp: Composition{Sequence: Sequential}},
		{name: "explicit timing", comp: Composition{Timing: []time.Duration{0, 400 * time.Millisecond}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, stage, _ := setupRegistry(t)
			stage.SetReducedMotion(true)

			tl, err := reg.Compose([]string{"fade", "dim"}, stage.Resolve("#a"), tt.comp, Options{})
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if !tl.Instant() {
				t.Errorf("Total = %v, want an instant composition", tl.Total)
			}
			for i, st := range tl.Steps {
				if st.Offset != 0 {
					t.Errorf("step %d offset = %v, want 0", i, st.Offset)
				}
			}
		})
	}
}

func TestCompose_Empty(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	_, err := reg.Compose([]string{"missing", "also-missing"}, stage.Resolve("#a"), Composition{}, Options{})
	if !errors.Is(err, ErrCompositionEmpty) {
		t.Errorf("Compose() error = %v, want ErrCompositionEmpty", err)
	}
}

func TestPreview_HalvesFullBuild(t *testing.T) {
	reg, stage, _ := setupRegistry(t)

	tl, err := reg.Preview("dim", stage.Resolve("#a"), Options{})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if tl.Total != 150*time.Millisecond {
		t.Errorf("preview Total = %v, want 150ms", tl.Total)
	}
}

func TestOptions_Merge(t *testing.T) {
	base := Options{Duration: time.Second, Intensity: IntensityStrong, Count: 3}
	over := Options{Duration: 200 * time.Millisecond, SelectedIndex: Int(2)}

	got := base.Merge(over)
	if got.Duration != 200*time.Millisecond || got.Intensity != IntensityStrong || got.Count != 3 {
		t.Errorf("Merge() = %+v", got)
	}
	if got.SelectedIndex == nil || *got.SelectedIndex != 2 {
		t.Error("Merge() lost SelectedIndex")
	}
	if IntensitySubtle.Multiplier() != 0.7 || IntensityStrong.Multiplier() != 1.4 || Intensity("").Multiplier() != 1 {
		t.Error("intensity multipliers changed")
	}
}
