package queue

import (
	"context"
	"sync"
	"time"
)

// Status is the terminal state of a queued execution.
type Status string

// Execution statuses.
const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusKilled    Status = "killed"
)

// Outcome describes how an execution ended.
type Outcome struct {
	ID     string
	Status Status
	// Err is nil for completed executions, ErrKilled for killed ones and the
	// build error for failed ones.
	Err error
	// Members lists the command IDs that were played.
	Members    []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Ticket is returned by Enqueue and resolves exactly once.
type Ticket struct {
	id      string
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newTicket(id string) *Ticket {
	return &Ticket{id: id, done: make(chan struct{})}
}

// ID returns the execution ID: the command ID, or the group ID for
// coordinated groups.
func (t *Ticket) ID() string {
	return t.id
}

// Done is closed when the ticket resolves.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Outcome returns the result once resolved.
func (t *Ticket) Outcome() (Outcome, bool) {
	select {
	case <-t.done:
		return t.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the ticket resolves or ctx is done. Cancelling ctx
// abandons the wait only; the command keeps its place in the queue.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.outcome.Err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (t *Ticket) resolve(o Outcome) {
	t.once.Do(func() {
		t.outcome = o
		close(t.done)
	})
}
