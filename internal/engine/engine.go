package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/effects/builtin"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// DefaultFrameInterval is one frame at 60 fps.
const DefaultFrameInterval = time.Second / 60

// Config wires the engine's components.
type Config struct {
	// FrameInterval is the master clock period.
	FrameInterval time.Duration
	// ReducedMotion forces the host preference on at startup.
	ReducedMotion bool
	// DefaultVariants maps effect name to the variant selected at startup.
	DefaultVariants map[string]string

	Coordinator coordinator.Config
	Perf        perf.Config
}

// Stage is the host the engine drives. *host.Stage implements it.
type Stage interface {
	host.Environment
	SetOnApply(fn host.MutationFunc)
	SetReducedMotion(reduced bool)
}

// Logger defines the logging interface used by the engine and handed to
// every component it owns.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Engine owns the registry, queue, coordinator and performance monitor and
// drives them from a single frame clock.
//
// Each component accepts one observer; the engine installs its own and fans
// out to any number of subscribers registered with the On* methods.
//
// Thread Safety: all public methods are safe for concurrent use.
type Engine struct {
	cfg   Config
	stage Stage

	registry    *effects.Registry
	queue       *queue.Queue
	coordinator *coordinator.Coordinator
	monitor     *perf.Monitor

	mu         sync.RWMutex
	onEvent    []func(queue.Event)
	onResult   []func(coordinator.Result)
	onSample   []func(perf.Snapshot)
	onMutation []host.MutationFunc

	logger Logger
}

// New builds an engine against stage with the built-in effect plugins
// registered and the configured default variants selected.
func New(cfg Config, stage Stage, logger Logger) (*Engine, error) {
	if stage == nil {
		return nil, fmt.Errorf("engine: stage is required")
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if logger == nil {
		logger = noopLogger{}
	}

	reg := effects.NewRegistry(stage)
	reg.SetLogger(logger)
	if err := builtin.Register(reg); err != nil {
		return nil, fmt.Errorf("registering built-in effects: %w", err)
	}
	for _, effect := range slices.Sorted(maps.Keys(cfg.DefaultVariants)) {
		if err := reg.SetVariant(effect, cfg.DefaultVariants[effect]); err != nil {
			return nil, fmt.Errorf("default variant for %s: %w", effect, err)
		}
	}

	mon := perf.New(cfg.Perf)
	mon.SetLogger(logger)
	reg.SetDegrader(mon)

	q := queue.New(stage, reg)
	q.SetLogger(logger)

	coord := coordinator.New(cfg.Coordinator, stage, coordinator.NewQueuePerformer(q))
	coord.SetLogger(logger)

	e := &Engine{
		cfg:         cfg,
		stage:       stage,
		registry:    reg,
		queue:       q,
		coordinator: coord,
		monitor:     mon,
		logger:      logger,
	}

	if cfg.ReducedMotion {
		stage.SetReducedMotion(true)
	}
	q.SetObserver(e.fanEvent)
	coord.SetObserver(e.fanResult)
	mon.OnSample(e.fanSample)
	stage.SetOnApply(e.fanMutation)

	return e, nil
}

// Registry returns the effect registry.
func (e *Engine) Registry() *effects.Registry { return e.registry }

// Queue returns the animation queue.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// Coordinator returns the navigation coordinator.
func (e *Engine) Coordinator() *coordinator.Coordinator { return e.coordinator }

// Monitor returns the performance monitor.
func (e *Engine) Monitor() *perf.Monitor { return e.monitor }

// SetReducedMotion changes the host reduced-motion preference.
func (e *Engine) SetReducedMotion(reduced bool) {
	e.stage.SetReducedMotion(reduced)
	e.logger.Info("reduced motion changed", "reduced", reduced)
}

// OnEvent subscribes to queue lifecycle events.
func (e *Engine) OnEvent(fn func(queue.Event)) {
	e.mu.Lock()
	e.onEvent = append(e.onEvent, fn)
	e.mu.Unlock()
}

// OnResult subscribes to coordinator outcomes.
func (e *Engine) OnResult(fn func(coordinator.Result)) {
	e.mu.Lock()
	e.onResult = append(e.onResult, fn)
	e.mu.Unlock()
}

// OnSample subscribes to performance samples.
func (e *Engine) OnSample(fn func(perf.Snapshot)) {
	e.mu.Lock()
	e.onSample = append(e.onSample, fn)
	e.mu.Unlock()
}

// OnMutation subscribes to stage property writes. Subscribers run on the
// frame loop and must not block.
func (e *Engine) OnMutation(fn host.MutationFunc) {
	e.mu.Lock()
	e.onMutation = append(e.onMutation, fn)
	e.mu.Unlock()
}

func (e *Engine) fanEvent(ev queue.Event) {
	e.mu.RLock()
	subs := e.onEvent
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (e *Engine) fanResult(r coordinator.Result) {
	e.mu.RLock()
	subs := e.onResult
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(r)
	}
}

func (e *Engine) fanSample(s perf.Snapshot) {
	e.mu.RLock()
	subs := e.onSample
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (e *Engine) fanMutation(h host.Handle, props host.Properties) {
	e.mu.RLock()
	subs := e.onMutation
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(h, props)
	}
}

// Tick delivers one frame at now: the monitor counts it and the queue
// advances.
func (e *Engine) Tick(now time.Time) {
	e.monitor.Frame(now)
	e.queue.Tick(now)
}

// Run drives the frame clock, the CPU sampler and the retry processor
// until ctx is cancelled. On return the queue is cleared and pending
// fallback timers are stopped.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		"frame_interval", e.cfg.FrameInterval,
		"effects", len(e.registry.EffectNames()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.frameLoop(gctx) })
	g.Go(func() error { return e.monitor.Run(gctx) })
	g.Go(func() error { return e.coordinator.RunRetryProcessor(gctx) })

	err := g.Wait()

	if n := e.queue.Clear(); n > 0 {
		e.logger.Info("cleared queue on shutdown", "killed", n)
	}
	e.coordinator.Close()
	e.logger.Info("engine stopped")

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (e *Engine) frameLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(e.stage.Now())
		}
	}
}
