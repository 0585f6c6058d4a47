package queue

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// Logger defines the logging interface used by the Queue.
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

// Builder turns an effect name and resolved targets into a timeline.
// *effects.Registry implements it.
type Builder interface {
	Execute(effect string, targets []host.Handle, opts effects.Options) (*timeline.Timeline, error)
}

// entry is one pending item: a single command or a coordinated group.
type entry struct {
	id          string
	priority    Priority
	members     []Command
	coordinated bool
	ticket      *Ticket
	enqueuedAt  time.Time
}

func (e *entry) memberIDs() []string {
	ids := make([]string, len(e.members))
	for i, c := range e.members {
		ids[i] = c.ID
	}
	return ids
}

func (e *entry) effectNames() []string {
	names := make([]string, len(e.members))
	for i, c := range e.members {
		names[i] = c.EffectName()
	}
	return names
}

type member struct {
	cmd    Command
	player *timeline.Player
}

// execution is the entry currently playing.
type execution struct {
	entry     *entry
	members   []member
	startedAt time.Time
	paused    bool
}

func (x *execution) playedIDs() []string {
	ids := make([]string, len(x.members))
	for i, m := range x.members {
		ids[i] = m.cmd.ID
	}
	return ids
}

// deferred collects work that must run after the queue lock is released.
type deferred struct {
	calls    []func()
	resolved []resolution
	events   []Event
}

type resolution struct {
	ticket  *Ticket
	outcome Outcome
}

func (d *deferred) call(fn func()) {
	if fn != nil {
		d.calls = append(d.calls, fn)
	}
}

func (d *deferred) resolve(t *Ticket, o Outcome) {
	d.resolved = append(d.resolved, resolution{ticket: t, outcome: o})
}

// Queue plays at most one execution at a time. Pending commands are
// ordered by priority and drained as each execution completes. Frames are
// delivered by Tick.
//
// Thread Safety: all public methods are safe for concurrent use. Command
// and timeline hooks, ticket resolution, and the observer run after the
// internal lock is released.
type Queue struct {
	env     host.Environment
	builder Builder

	mu       sync.Mutex
	pending  []*entry
	active   *execution
	seen     map[string]struct{}
	logger   Logger
	observer func(Event)
}

// New creates an idle queue.
func New(env host.Environment, builder Builder) *Queue {
	return &Queue{
		env:     env,
		builder: builder,
		seen:    make(map[string]struct{}),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the queue.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// SetObserver registers a function receiving every lifecycle event.
func (q *Queue) SetObserver(fn func(Event)) {
	q.mu.Lock()
	q.observer = fn
	q.mu.Unlock()
}

// Enqueue adds a command. An empty ID is replaced with a generated one.
// When the queue is idle the command starts immediately.
//
// Returns:
//   - ErrInvalidCommand if the command fails validation
//   - ErrDuplicateID if the ID was used before
func (q *Queue) Enqueue(cmd Command) (*Ticket, error) {
	return q.enqueue(cmd, false)
}

// Interrupt clears the queue and, when cmd is non-nil, enqueues it in the
// same critical section.
func (q *Queue) Interrupt(cmd *Command) (*Ticket, error) {
	if cmd == nil {
		q.Clear()
		return nil, nil
	}
	return q.enqueue(*cmd, true)
}

func (q *Queue) enqueue(cmd Command, interrupt bool) (*Ticket, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := q.env.Now()

	var d deferred
	q.mu.Lock()
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	if _, dup := q.seen[cmd.ID]; dup {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, cmd.ID)
	}
	q.seen[cmd.ID] = struct{}{}

	e := &entry{
		id:         cmd.ID,
		priority:   cmd.Priority,
		members:    []Command{cmd},
		ticket:     newTicket(cmd.ID),
		enqueuedAt: now,
	}
	if interrupt {
		q.clearLocked(now, &d)
	}
	q.pushLocked(e, now, &d)
	q.mu.Unlock()

	q.flush(&d)
	return e.ticket, nil
}

// EnqueueCoordinated adds a group whose members start together on one
// master clock. The group is a single pending item at the highest member
// priority and completes when its slowest member does.
func (q *Queue) EnqueueCoordinated(cmds []Command) (*Ticket, error) {
	if len(cmds) == 0 {
		return nil, ErrEmptyGroup
	}
	members := slices.Clone(cmds)
	priority := PriorityNormal
	for i := range members {
		if err := members[i].Validate(); err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		members[i].Options.Coordinated = true
		priority = max(priority, members[i].Priority)
	}
	now := q.env.Now()

	var d deferred
	q.mu.Lock()
	ids := make(map[string]struct{}, len(members))
	for i := range members {
		if members[i].ID == "" {
			members[i].ID = uuid.New().String()
		}
		_, used := q.seen[members[i].ID]
		_, twice := ids[members[i].ID]
		if used || twice {
			q.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, members[i].ID)
		}
		ids[members[i].ID] = struct{}{}
	}
	for id := range ids {
		q.seen[id] = struct{}{}
	}

	groupID := uuid.New().String()
	e := &entry{
		id:          groupID,
		priority:    priority,
		members:     members,
		coordinated: true,
		ticket:      newTicket(groupID),
		enqueuedAt:  now,
	}
	q.pushLocked(e, now, &d)
	q.mu.Unlock()

	q.flush(&d)
	return e.ticket, nil
}

// pushLocked places e by priority and starts draining when idle.
func (q *Queue) pushLocked(e *entry, now time.Time, d *deferred) {
	if e.priority == PriorityOverride {
		q.clearLocked(now, d)
	}

	if e.priority >= PriorityHigh {
		i := 0
		for i < len(q.pending) && q.pending[i].priority >= PriorityHigh {
			i++
		}
		q.pending = slices.Insert(q.pending, i, e)
	} else {
		q.pending = append(q.pending, e)
	}
	d.events = append(d.events, newEvent(EventQueued, e, now))

	if q.active == nil {
		q.pumpLocked(now, d)
	}
}

// Tick advances the active execution to now. Completion starts the next
// pending item in the same call.
func (q *Queue) Tick(now time.Time) {
	var d deferred
	q.mu.Lock()
	if q.active != nil {
		q.pumpLocked(now, &d)
	}
	q.mu.Unlock()
	q.flush(&d)
}

// pumpLocked starts and advances executions until one is still running or
// nothing is pending.
func (q *Queue) pumpLocked(now time.Time, d *deferred) {
	for {
		if q.active == nil && !q.startLocked(now, d) {
			return
		}
		if q.active.paused || !q.advanceLocked(now, d) {
			return
		}
	}
}

// startLocked pops pending entries until one builds. It reports whether an
// execution is now active.
func (q *Queue) startLocked(now time.Time, d *deferred) bool {
	for len(q.pending) > 0 {
		e := q.pending[0]
		q.pending = q.pending[1:]

		x, err := q.buildLocked(e)
		if err != nil {
			q.logger.Error("animation build failed, discarding",
				"id", e.id,
				"effects", e.effectNames(),
				"error", err,
			)
			d.resolve(e.ticket, Outcome{ID: e.id, Status: StatusFailed, Err: err, FinishedAt: now})
			ev := newEvent(EventFailed, e, now)
			ev.Error = err.Error()
			d.events = append(d.events, ev)
			continue
		}

		x.startedAt = now
		for _, m := range x.members {
			m.player.Start(now)
			d.call(m.player.Timeline().OnStart)
			d.call(m.cmd.Options.OnStart)
		}
		q.active = x
		q.logger.Debug("animation started", "id", e.id, "members", len(x.members))

		ev := newEvent(EventStarted, e, now)
		ev.Members = x.playedIDs()
		d.events = append(d.events, ev)
		return true
	}
	return false
}

func (q *Queue) buildLocked(e *entry) (*execution, error) {
	x := &execution{entry: e}
	var errs []error
	for _, cmd := range e.members {
		tl, err := q.buildCommand(cmd)
		if err != nil {
			if e.coordinated {
				q.logger.Warn("coordinated member failed to build", "group", e.id, "id", cmd.ID, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", cmd.ID, err))
			continue
		}
		x.members = append(x.members, member{cmd: cmd, player: timeline.NewPlayer(tl, q.env)})
	}
	if len(x.members) > 0 {
		return x, nil
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, fmt.Errorf("%w: %w", ErrNoTimeline, errors.Join(errs...))
}

func (q *Queue) buildCommand(cmd Command) (tl *timeline.Timeline, err error) {
	targets := q.env.Resolve(cmd.Target)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", host.ErrTargetNotFound, cmd.Target)
	}

	defer func() {
		if rec := recover(); rec != nil {
			tl = nil
			err = fmt.Errorf("%w: panic: %v", effects.ErrBuildFailed, rec)
		}
	}()
	return q.builder.Execute(cmd.EffectName(), targets, cmd.params())
}

// advanceLocked plays one frame of the active execution and reports
// whether it completed. Members that only loop never hold a group open.
func (q *Queue) advanceLocked(now time.Time, d *deferred) bool {
	x := q.active
	finite := false
	done := true
	for _, m := range x.members {
		finished, err := m.player.Advance(now)
		if err != nil {
			q.logger.Debug("animation frame incomplete", "id", m.cmd.ID, "error", err)
		}
		if loopsOnly(m.player.Timeline()) {
			continue
		}
		finite = true
		if !finished {
			done = false
		}
	}
	if !finite || !done {
		return false
	}

	q.active = nil
	for _, m := range x.members {
		tl := m.player.Timeline()
		tl.Release()
		d.call(tl.OnComplete)
		d.call(m.cmd.Options.OnComplete)
	}
	played := x.playedIDs()
	d.resolve(x.entry.ticket, Outcome{
		ID:         x.entry.id,
		Status:     StatusCompleted,
		Members:    played,
		StartedAt:  x.startedAt,
		FinishedAt: now,
	})
	ev := newEvent(EventCompleted, x.entry, now)
	ev.Members = played
	ev.Elapsed = x.members[0].player.Elapsed(now)
	d.events = append(d.events, ev)
	q.logger.Debug("animation completed", "id", x.entry.id)
	return true
}

// loopsOnly reports whether every step of tl repeats forever.
func loopsOnly(tl *timeline.Timeline) bool {
	if len(tl.Steps) == 0 {
		return false
	}
	for _, s := range tl.Steps {
		if !s.Infinite() {
			return false
		}
	}
	return true
}

// Clear kills the active execution and drops every pending item. Killed
// work never runs its completion hooks; its tickets resolve with
// ErrKilled. It returns the number of executions removed and is a no-op on
// an idle queue.
func (q *Queue) Clear() int {
	now := q.env.Now()
	var d deferred
	q.mu.Lock()
	n := q.clearLocked(now, &d)
	q.mu.Unlock()
	q.flush(&d)
	return n
}

func (q *Queue) clearLocked(now time.Time, d *deferred) int {
	n := 0
	if x := q.active; x != nil {
		q.active = nil
		for _, m := range x.members {
			m.player.Timeline().Release()
		}
		d.resolve(x.entry.ticket, Outcome{
			ID:         x.entry.id,
			Status:     StatusKilled,
			Err:        ErrKilled,
			Members:    x.playedIDs(),
			StartedAt:  x.startedAt,
			FinishedAt: now,
		})
		d.events = append(d.events, newEvent(EventKilled, x.entry, now))
		n++
	}
	for _, e := range q.pending {
		d.resolve(e.ticket, Outcome{ID: e.id, Status: StatusKilled, Err: ErrKilled, FinishedAt: now})
		d.events = append(d.events, newEvent(EventKilled, e, now))
		n++
	}
	q.pending = nil

	if n > 0 {
		d.events = append(d.events, Event{Type: EventCleared, At: now})
		q.logger.Info("animation queue cleared", "removed", n)
	}
	return n
}

// Pause freezes the active execution's clock. It reports whether anything
// was paused.
func (q *Queue) Pause() bool {
	now := q.env.Now()
	var d deferred
	q.mu.Lock()
	x := q.active
	if x == nil || x.paused {
		q.mu.Unlock()
		return false
	}
	for _, m := range x.members {
		m.player.Pause(now)
	}
	x.paused = true
	d.events = append(d.events, newEvent(EventPaused, x.entry, now))
	q.mu.Unlock()

	q.flush(&d)
	return true
}

// Resume continues a paused execution from where it stopped.
func (q *Queue) Resume() bool {
	now := q.env.Now()
	var d deferred
	q.mu.Lock()
	x := q.active
	if x == nil || !x.paused {
		q.mu.Unlock()
		return false
	}
	for _, m := range x.members {
		m.player.Resume(now)
	}
	x.paused = false
	d.events = append(d.events, newEvent(EventResumed, x.entry, now))
	q.mu.Unlock()

	q.flush(&d)
	return true
}

// ActiveID returns the ID of the playing execution, or "".
func (q *Queue) ActiveID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		return ""
	}
	return q.active.entry.id
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// flush runs deferred work outside the lock. Hook panics are logged.
func (q *Queue) flush(d *deferred) {
	for _, fn := range d.calls {
		q.safeCall(fn)
	}
	for _, r := range d.resolved {
		r.ticket.resolve(r.outcome)
	}

	q.mu.Lock()
	observer := q.observer
	q.mu.Unlock()
	if observer == nil {
		return
	}
	for _, ev := range d.events {
		observer(ev)
	}
}

func (q *Queue) safeCall(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			q.logger.Error("animation hook panicked", "panic", rec)
		}
	}()
	fn()
}
