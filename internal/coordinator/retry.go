package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-motion/internal/effects/builtin"
	"github.com/nerrad567/gray-logic-motion/internal/host"
)

// Retry plays cmd up to maxRetries times, waiting attempt × RetryBackoff
// between attempts. A non-retryable failure returns at once. When every
// attempt fails the instant fallback runs and the result carries
// ErrRetryExhausted. An invalid command fails at once without attempts
// or fallback. maxRetries <= 0 uses Config.MaxRetries.
func (c *Coordinator) Retry(ctx context.Context, cmd Command, maxRetries int) Result {
	if maxRetries <= 0 {
		maxRetries = c.cfg.MaxRetries
	}
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	start := c.now()

	if v := c.Validate(cmd); !v.Valid {
		err := fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Errors, "; "))
		c.recordFailure(cmd, err)
		return c.finish(cmd, Result{Err: err}, start)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		c.mu.Lock()
		c.state.Reliability.RetryAttempts++
		c.mu.Unlock()

		c.begin(cmd.ID)
		err := c.performer.Perform(ctx, cmd)
		c.end()
		if err == nil {
			c.recordSuccess(cmd, true)
			return c.finish(cmd, Result{Success: true, Attempts: attempt}, start)
		}
		lastErr = err
		if !retryable(err) {
			c.recordFailure(cmd, err)
			return c.finish(cmd, Result{Attempts: attempt, Err: err}, start)
		}

		c.logger.Debug("navigation attempt failed", "id", cmd.ID, "attempt", attempt, "error", err)
		if attempt < maxRetries {
			if err := c.sleep(ctx, time.Duration(attempt)*c.cfg.RetryBackoff); err != nil {
				return c.finish(cmd, Result{Attempts: attempt, Err: err}, start)
			}
		}
	}

	c.recordFailure(cmd, lastErr)
	c.logger.Warn("navigation retries exhausted, using fallback", "id", cmd.ID, "attempts", maxRetries)
	fb := c.fallback(ctx, cmd)
	fb.Attempts = maxRetries
	fb.Err = fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxRetries, lastErr)
	return c.finish(cmd, fb, start)
}

// enqueueRetry schedules cmd for the retry processor.
func (c *Coordinator) enqueueRetry(cmd Command, attempts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = append(c.retries, retryItem{
		cmd:      cmd,
		attempts: attempts,
		due:      c.now().Add(time.Duration(attempts) * c.cfg.RetryBackoff),
	})
}

// RunRetryProcessor drains the retry queue every RetryInterval until ctx
// is cancelled.
func (c *Coordinator) RunRetryProcessor(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.ProcessRetries(ctx)
		}
	}
}

// ProcessRetries runs every due item of the retry queue, oldest first,
// unless a command or sequence is in flight. Items with attempts left go
// back on the queue; exhausted items fall back. It returns the number of
// items processed.
func (c *Coordinator) ProcessRetries(ctx context.Context) int {
	c.mu.Lock()
	if c.coordinating > 0 || len(c.retries) == 0 {
		c.mu.Unlock()
		return 0
	}
	now := c.now()
	var due, later []retryItem
	for _, it := range c.retries {
		if it.due.After(now) {
			later = append(later, it)
		} else {
			due = append(due, it)
		}
	}
	c.retries = later
	c.mu.Unlock()

	for _, it := range due {
		c.retryOnce(ctx, it)
	}
	return len(due)
}

func (c *Coordinator) retryOnce(ctx context.Context, it retryItem) {
	start := c.now()
	it.attempts++

	c.mu.Lock()
	c.state.Reliability.RetryAttempts++
	c.mu.Unlock()

	c.begin(it.cmd.ID)
	err := c.performer.Perform(ctx, it.cmd)
	c.end()

	switch {
	case err == nil:
		c.recordSuccess(it.cmd, true)
		c.finish(it.cmd, Result{Success: true, Attempts: it.attempts}, start)
	case retryable(err) && it.attempts < c.cfg.MaxRetries:
		c.recordFailure(it.cmd, err)
		c.enqueueRetry(it.cmd, it.attempts)
	default:
		c.recordFailure(it.cmd, err)
		fb := c.fallback(ctx, it.cmd)
		fb.Attempts = it.attempts
		fb.Err = fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, it.attempts, err)
		c.finish(it.cmd, fb, start)
	}
}

// Fallback lands cmd's final state without animating.
func (c *Coordinator) Fallback(ctx context.Context, cmd Command) Result {
	return c.finish(cmd, c.fallback(ctx, cmd), c.now())
}

func (c *Coordinator) fallback(ctx context.Context, cmd Command) Result {
	c.mu.Lock()
	c.state.Reliability.FallbacksUsed++
	c.mu.Unlock()

	res := Result{FallbackUsed: true}
	targets := c.env.Resolve(cmd.Target)
	if len(targets) == 0 {
		res.Err = fmt.Errorf("%w: %s", host.ErrTargetNotFound, cmd.Target)
		return res
	}

	var err error
	if f, ok := c.performer.(Fallbacker); ok {
		err = f.PerformInstant(ctx, cmd)
	} else {
		err = c.applyInstant(cmd, targets[0])
	}
	if err != nil {
		res.Err = err
		return res
	}
	c.recordSuccess(cmd, false)
	res.Success = true
	return res
}

// applyInstant writes the resting state of cmd straight to the host.
func (c *Coordinator) applyInstant(cmd Command, target host.Handle) error {
	switch cmd.Action {
	case ActionNavigate, ActionScroll:
		container := target
		if vp := c.env.Resolve(builtin.ViewportLocator); len(vp) > 0 {
			container = vp[0]
		}
		return c.env.Apply(container, host.Properties{host.PropScrollY: target.Bounds.Y})

	case ActionModal:
		return c.env.Apply(target, host.Properties{host.PropOpacity: 1, host.PropScale: 1, host.PropOpen: 1})

	case ActionHighlight:
		if err := c.env.Apply(target, host.Properties{host.PropOutline: 1}); err != nil {
			return err
		}
		c.holdHighlight(target)
		return nil

	case ActionFocus:
		return c.env.Apply(target, host.Properties{host.PropFocus: 1})
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}

// holdHighlight removes a fallback outline after HighlightHold. A newer
// highlight of the same element restarts the timer.
func (c *Coordinator) holdHighlight(target host.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[target.ID]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(c.cfg.HighlightHold, func() {
		c.mu.Lock()
		current := c.timers[target.ID] == timer
		if current {
			delete(c.timers, target.ID)
		}
		c.mu.Unlock()
		if !current {
			return
		}
		if err := c.env.Apply(target, host.Properties{host.PropOutline: 0}); err != nil {
			c.logger.Debug("highlight outline removal failed", "target", target.ID, "error", err)
		}
	})
	c.timers[target.ID] = timer
}

// Close stops pending highlight timers.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
