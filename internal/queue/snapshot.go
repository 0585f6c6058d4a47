package queue

import (
	"slices"
	"time"
)

// PendingItem describes one waiting command or group.
type PendingItem struct {
	ID          string    `json:"id"`
	Priority    string    `json:"priority"`
	Coordinated bool      `json:"coordinated"`
	Members     []string  `json:"members"`
	Effects     []string  `json:"effects"`
	Targets     []string  `json:"targets"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// ActiveExecution describes what is playing.
type ActiveExecution struct {
	ID          string        `json:"id"`
	Coordinated bool          `json:"coordinated"`
	Members     []string      `json:"members"`
	Effects     []string      `json:"effects"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     time.Duration `json:"elapsed"`
	Paused      bool          `json:"paused"`
}

// Snapshot is a copy of the queue state. IsPlaying is false exactly when
// Active is nil.
type Snapshot struct {
	Pending   []PendingItem    `json:"pending"`
	Active    *ActiveExecution `json:"active,omitempty"`
	IsPlaying bool             `json:"is_playing"`
}

// Snapshot returns a copy of the pending list and the active execution.
func (q *Queue) Snapshot() Snapshot {
	now := q.env.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{Pending: make([]PendingItem, 0, len(q.pending))}
	for _, e := range q.pending {
		ev := newEvent(EventQueued, e, now)
		snap.Pending = append(snap.Pending, PendingItem{
			ID:          e.id,
			Priority:    ev.Priority,
			Coordinated: e.coordinated,
			Members:     ev.Members,
			Effects:     ev.Effects,
			Targets:     ev.Targets,
			EnqueuedAt:  e.enqueuedAt,
		})
	}

	if x := q.active; x != nil {
		effects := make([]string, len(x.members))
		for i, m := range x.members {
			effects[i] = m.cmd.EffectName()
		}
		snap.Active = &ActiveExecution{
			ID:          x.entry.id,
			Coordinated: x.entry.coordinated,
			Members:     slices.Clone(x.playedIDs()),
			Effects:     effects,
			StartedAt:   x.startedAt,
			Elapsed:     x.members[0].player.Elapsed(now),
			Paused:      x.paused,
		}
		snap.IsPlaying = true
	}
	return snap
}
