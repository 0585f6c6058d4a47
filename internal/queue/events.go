package queue

import "time"

// EventType names a queue lifecycle event.
type EventType string

// Lifecycle events.
const (
	EventQueued    EventType = "queued"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventKilled    EventType = "killed"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
	EventCleared   EventType = "cleared"
)

// Event is delivered to the observer after the queue lock is released.
type Event struct {
	Type        EventType     `json:"type"`
	ID          string        `json:"id,omitempty"`
	Effects     []string      `json:"effects,omitempty"`
	Targets     []string      `json:"targets,omitempty"`
	Members     []string      `json:"members,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Coordinated bool          `json:"coordinated,omitempty"`
	Error       string        `json:"error,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
	At          time.Time     `json:"at"`
}

func newEvent(t EventType, e *entry, now time.Time) Event {
	targets := make([]string, len(e.members))
	for i, c := range e.members {
		targets[i] = c.Target
	}
	return Event{
		Type:        t,
		ID:          e.id,
		Effects:     e.effectNames(),
		Targets:     targets,
		Members:     e.memberIDs(),
		Priority:    e.priority.String(),
		Coordinated: e.coordinated,
		At:          now,
	}
}
