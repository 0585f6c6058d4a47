package coordinator

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-motion/internal/effects/builtin"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// Performer plays one command to completion.
type Performer interface {
	Perform(ctx context.Context, cmd Command) error
}

// GroupPerformer plays several commands on one clock and returns one error
// per command, in order. Performers without it get one goroutine per
// command.
type GroupPerformer interface {
	PerformGroup(ctx context.Context, cmds []Command) []error
}

// Fallbacker lands a command's final state without animating. Performers
// without it get the coordinator's direct host writes.
type Fallbacker interface {
	PerformInstant(ctx context.Context, cmd Command) error
}

// busyReporter reports whether an animation is playing.
type busyReporter interface {
	Busy() bool
}

// QueuePerformer plays commands through the animation queue.
type QueuePerformer struct {
	q *queue.Queue
}

// NewQueuePerformer creates a performer backed by q.
func NewQueuePerformer(q *queue.Queue) *QueuePerformer {
	return &QueuePerformer{q: q}
}

// Perform enqueues cmd and waits for its ticket.
func (p *QueuePerformer) Perform(ctx context.Context, cmd Command) error {
	qc, err := QueueCommand(cmd)
	if err != nil {
		return err
	}
	tk, err := p.q.Enqueue(qc)
	if err != nil {
		return err
	}
	_, err = tk.Wait(ctx)
	return err
}

// PerformGroup enqueues cmds as one coordinated group. Members the queue
// dropped from a completed group fail with ErrNotPlayed.
func (p *QueuePerformer) PerformGroup(ctx context.Context, cmds []Command) []error {
	errs := make([]error, len(cmds))
	fail := func(err error) []error {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}

	qcs := make([]queue.Command, 0, len(cmds))
	for _, cmd := range cmds {
		qc, err := QueueCommand(cmd)
		if err != nil {
			return fail(err)
		}
		qc.ID = uuid.New().String()
		qcs = append(qcs, qc)
	}
	tk, err := p.q.EnqueueCoordinated(qcs)
	if err != nil {
		return fail(err)
	}
	out, err := tk.Wait(ctx)
	if err != nil {
		return fail(err)
	}
	for i, qc := range qcs {
		if !slices.Contains(out.Members, qc.ID) {
			errs[i] = fmt.Errorf("%w: %s", ErrNotPlayed, cmds[i].Target)
		}
	}
	return errs
}

// Busy reports whether the queue is playing.
func (p *QueuePerformer) Busy() bool {
	return p.q.ActiveID() != ""
}

// QueueCommand maps a navigation command to a queue command. The queue ID
// is left empty so retries of the same navigation command get fresh IDs.
func QueueCommand(cmd Command) (queue.Command, error) {
	qc := queue.Command{
		Target:   cmd.Target,
		Duration: cmd.Duration,
		Priority: cmd.Priority,
		Options:  queue.Options{Params: cmd.Options},
	}
	switch cmd.Action {
	case ActionNavigate:
		qc.Kind = queue.KindNavigate
	case ActionScroll:
		qc.Kind, qc.Effect = queue.KindCustom, builtin.ScrollIntoView
	case ActionModal:
		qc.Kind = queue.KindModalOpen
	case ActionHighlight:
		qc.Kind = queue.KindHighlight
	case ActionFocus:
		qc.Kind, qc.Effect = queue.KindCustom, builtin.FocusRing
	default:
		return queue.Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	return qc, nil
}
