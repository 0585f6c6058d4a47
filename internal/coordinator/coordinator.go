package coordinator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// Defaults used when a Config field is zero.
const (
	DefaultMaxRetries    = 3
	DefaultRetryBackoff  = 500 * time.Millisecond
	DefaultRetryInterval = time.Second
	DefaultSuccessWindow = 20
	DefaultHighlightHold = 3 * time.Second

	maxFailedCommands = 50
	maxHistory        = 50
)

// Config tunes retries and bookkeeping.
type Config struct {
	// MaxRetries is the attempt budget of Retry and the retry processor.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration
	// RetryInterval is how often RunRetryProcessor drains the retry queue.
	RetryInterval time.Duration
	// SuccessWindow is the number of recent outcomes in the success rate.
	SuccessWindow int
	// HighlightHold is how long a fallback highlight outline stays.
	HighlightHold time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.SuccessWindow <= 0 {
		c.SuccessWindow = DefaultSuccessWindow
	}
	if c.HighlightHold <= 0 {
		c.HighlightHold = DefaultHighlightHold
	}
	return c
}

// Logger defines the logging interface used by the Coordinator.
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

// retryItem is a failed command waiting in the retry queue.
type retryItem struct {
	cmd      Command
	attempts int
	due      time.Time
}

// Coordinator turns navigation intents into animations with validation,
// retries and instant fallbacks.
//
// Thread Safety: all public methods are safe for concurrent use.
type Coordinator struct {
	cfg       Config
	env       host.Environment
	performer Performer

	mu           sync.Mutex
	state        State
	outcomes     []bool
	retries      []retryItem
	coordinating int
	timers       map[string]*time.Timer

	logger   Logger
	observer func(Result)
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a coordinator that plays commands through performer and
// resolves targets through env.
func New(cfg Config, env host.Environment, performer Performer) *Coordinator {
	return &Coordinator{
		cfg:       cfg.withDefaults(),
		env:       env,
		performer: performer,
		state: State{
			Navigation:   NavigationState{History: []string{}},
			Coordination: CoordinationState{QueuedCommands: []string{}},
			Reliability:  ReliabilityState{FailedCommands: []FailedCommand{}, SuccessRate: 1},
		},
		timers: make(map[string]*time.Timer),
		logger: noopLogger{},
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetObserver registers a function receiving every final Result.
func (c *Coordinator) SetObserver(fn func(Result)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

func (c *Coordinator) busy() bool {
	if b, ok := c.performer.(busyReporter); ok {
		return b.Busy()
	}
	return false
}

// Execute validates and plays cmd. Retryable failures are queued for the
// retry processor.
func (c *Coordinator) Execute(ctx context.Context, cmd Command) Result {
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	start := c.now()

	v := c.Validate(cmd)
	if !v.Valid {
		err := fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Errors, "; "))
		c.recordFailure(cmd, err)
		return c.finish(cmd, Result{Err: err}, start)
	}
	for _, w := range v.Warnings {
		c.logger.Debug("navigation command warning", "id", cmd.ID, "warning", w)
	}

	c.begin(cmd.ID)
	err := c.performer.Perform(ctx, cmd)
	c.end()

	if err != nil {
		c.recordFailure(cmd, err)
		if retryable(err) {
			c.enqueueRetry(cmd, 1)
		}
		return c.finish(cmd, Result{Attempts: 1, Err: err}, start)
	}
	c.recordSuccess(cmd, true)
	return c.finish(cmd, Result{Success: true, Attempts: 1}, start)
}

// ExecuteCoordinated validates every command first and runs nothing if
// any is invalid. Valid batches run phase by phase: navigation and scroll,
// then modals, then highlights, then focus. Commands within a phase start
// together; retryable failures are landed with the instant fallback.
func (c *Coordinator) ExecuteCoordinated(ctx context.Context, cmds []Command) (BatchResult, error) {
	var problems []string
	for i := range cmds {
		if cmds[i].ID == "" {
			cmds[i].ID = uuid.New().String()
		}
		if v := c.Validate(cmds[i]); !v.Valid {
			problems = append(problems, fmt.Sprintf("command %d (%s): %s", i, cmds[i].ID, strings.Join(v.Errors, ", ")))
		}
	}
	if len(problems) > 0 {
		return BatchResult{}, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}

	batch := BatchResult{SequenceID: uuid.New().String(), Results: make([]Result, len(cmds))}
	c.begin(batch.SequenceID)
	defer c.end()

	c.logger.Info("coordinated sequence started", "sequence", batch.SequenceID, "commands", len(cmds))

	for _, phase := range phases {
		var idx []int
		for i, cmd := range cmds {
			if slices.Contains(phase, cmd.Action) {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		c.runPhase(ctx, cmds, idx, batch.Results)
	}

	for _, r := range batch.Results {
		if r.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	c.logger.Info("coordinated sequence finished",
		"sequence", batch.SequenceID,
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
	)
	return batch, nil
}

// runPhase plays one phase and writes each member's result into results.
func (c *Coordinator) runPhase(ctx context.Context, cmds []Command, idx []int, results []Result) {
	start := c.now()
	errs := make([]error, len(idx))

	if gp, ok := c.performer.(GroupPerformer); ok && len(idx) > 1 {
		members := make([]Command, len(idx))
		for j, i := range idx {
			members[j] = cmds[i]
		}
		copy(errs, gp.PerformGroup(ctx, members))
	} else {
		var g errgroup.Group
		for j, i := range idx {
			g.Go(func() error {
				errs[j] = c.performer.Perform(ctx, cmds[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	// Failed members fall back concurrently.
	var g errgroup.Group
	for j, i := range idx {
		cmd := cmds[i]
		err := errs[j]
		if err == nil {
			c.recordSuccess(cmd, true)
			results[i] = c.finish(cmd, Result{Success: true, Attempts: 1}, start)
			continue
		}
		c.recordFailure(cmd, err)
		if !retryable(err) {
			results[i] = c.finish(cmd, Result{Attempts: 1, Err: err}, start)
			continue
		}
		g.Go(func() error {
			fb := c.fallback(ctx, cmd)
			fb.Attempts = 1
			if fb.Err == nil {
				fb.Err = err
			}
			results[i] = c.finish(cmd, fb, start)
			return nil
		})
	}
	_ = g.Wait()
}

// State returns a deep copy of the coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.clone()
	s.Coordination.IsCoordinating = c.coordinating > 0
	s.Coordination.QueuedCommands = make([]string, 0, len(c.retries))
	for _, it := range c.retries {
		s.Coordination.QueuedCommands = append(s.Coordination.QueuedCommands, it.cmd.ID)
	}
	return s
}

func (c *Coordinator) begin(id string) {
	c.mu.Lock()
	c.coordinating++
	c.state.Coordination.ActiveSequenceID = id
	c.mu.Unlock()
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.coordinating--
	if c.coordinating == 0 {
		c.state.Coordination.ActiveSequenceID = ""
	}
	c.state.Coordination.LastSync = c.now()
	c.mu.Unlock()
}

// recordSuccess updates interface and navigation state. counted adds the
// outcome to the success rate.
func (c *Coordinator) recordSuccess(cmd Command, counted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Action {
	case ActionNavigate, ActionScroll:
		if cur := c.state.Navigation.Current; cur != "" && cur != cmd.Target {
			c.state.Navigation.History = append(c.state.Navigation.History, cur)
			if n := len(c.state.Navigation.History); n > maxHistory {
				c.state.Navigation.History = slices.Clone(c.state.Navigation.History[n-maxHistory:])
			}
		}
		c.state.Navigation.Current = cmd.Target
	case ActionModal:
		c.state.Interface.ActiveModal = cmd.Target
	case ActionHighlight:
		c.state.Interface.Highlighted = cmd.Target
	case ActionFocus:
		c.state.Interface.Focused = cmd.Target
	}
	if counted {
		c.pushOutcomeLocked(true)
	}
}

func (c *Coordinator) recordFailure(cmd Command, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Reliability.FailedCommands = append(c.state.Reliability.FailedCommands, FailedCommand{
		ID:     cmd.ID,
		Action: cmd.Action,
		Target: cmd.Target,
		Error:  err.Error(),
		At:     c.now(),
	})
	if n := len(c.state.Reliability.FailedCommands); n > maxFailedCommands {
		c.state.Reliability.FailedCommands = slices.Clone(c.state.Reliability.FailedCommands[n-maxFailedCommands:])
	}
	c.pushOutcomeLocked(false)
}

func (c *Coordinator) pushOutcomeLocked(ok bool) {
	c.outcomes = append(c.outcomes, ok)
	if len(c.outcomes) > c.cfg.SuccessWindow {
		c.outcomes = c.outcomes[len(c.outcomes)-c.cfg.SuccessWindow:]
	}
	good := 0
	for _, o := range c.outcomes {
		if o {
			good++
		}
	}
	c.state.Reliability.SuccessRate = float64(good) / float64(len(c.outcomes))
}

// finish stamps the common result fields and notifies the observer.
func (c *Coordinator) finish(cmd Command, r Result, start time.Time) Result {
	r.ID = cmd.ID
	r.Action = cmd.Action
	r.Target = cmd.Target
	r.Duration = c.now().Sub(start)
	if r.Err != nil {
		r.Error = r.Err.Error()
		c.logger.Warn("navigation command failed",
			"id", cmd.ID,
			"action", cmd.Action,
			"target", cmd.Target,
			"fallback", r.FallbackUsed,
			"error", r.Err,
		)
	}

	c.mu.Lock()
	observer := c.observer
	c.mu.Unlock()
	if observer != nil {
		observer(r)
	}
	return r
}

// retryable reports whether another attempt could succeed. Validation
// problems, missing targets or effects, and killed or cancelled work are
// final.
func retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrValidationFailed),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, host.ErrTargetNotFound),
		errors.Is(err, effects.ErrEffectNotFound),
		errors.Is(err, effects.ErrInvalidOptions),
		errors.Is(err, effects.ErrMissingOption),
		errors.Is(err, queue.ErrKilled),
		errors.Is(err, queue.ErrInvalidCommand),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
