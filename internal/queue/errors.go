package queue

import "errors"

// Domain errors for the animation queue.
// Use errors.Is() to check for these errors:
//
//	outcome, err := ticket.Wait(ctx)
//	if errors.Is(err, queue.ErrKilled) {
//	    // The command was cleared before it finished
//	}
var (
	// ErrKilled resolves tickets of commands removed by Clear, Interrupt, or
	// an Override enqueue.
	ErrKilled = errors.New("queue: killed")

	// ErrDuplicateID is returned when a command ID was already used.
	ErrDuplicateID = errors.New("queue: duplicate command id")

	// ErrInvalidCommand is returned when a command fails validation.
	ErrInvalidCommand = errors.New("queue: invalid command")

	// ErrEmptyGroup is returned by EnqueueCoordinated with no commands.
	ErrEmptyGroup = errors.New("queue: empty coordinated group")

	// ErrNoTimeline is the failure recorded when no member of an execution
	// could be built.
	ErrNoTimeline = errors.New("queue: nothing to play")
)
