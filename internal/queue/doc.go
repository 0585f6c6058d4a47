// Package queue serialises animation playback.
//
// At most one execution plays at a time. An execution is either a single
// Command or a coordinated group whose members share one master clock.
// Pending items are ordered by priority:
//
//	Override  kills the active execution, drops everything pending
//	High      goes after the last pending High, ahead of every Normal
//	Normal    appended
//
// The queue is frame driven: the engine's frame loop calls Tick, which
// advances the active timelines and starts the next item when one
// completes. Enqueue starts an item straight away when the queue is idle,
// so instant (reduced-motion) timelines resolve before Enqueue returns.
//
// Each enqueue returns a Ticket. Tickets resolve once, with
// StatusCompleted, StatusFailed (the build error is logged and the drain
// continues) or StatusKilled (ErrKilled). Killed work never runs its
// OnComplete hooks, and every killed or completed timeline releases the
// helper elements it spawned.
//
// Builds run inside the queue lock and have no timeout. A builder that
// never returns stalls the queue.
package queue
