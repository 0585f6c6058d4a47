package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
)

// Execution is one persisted coordinator outcome.
type Execution struct {
	ID           string    `json:"id"`
	CommandID    string    `json:"command_id"`
	Action       string    `json:"action"`
	Target       string    `json:"target"`
	Success      bool      `json:"success"`
	Attempts     int       `json:"attempts"`
	FallbackUsed bool      `json:"fallback_used"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Summary aggregates the stored executions.
type Summary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Fallbacks int            `json:"fallbacks"`
	ByAction  map[string]int `json:"by_action"`
}

// FromResult converts a coordinator result into a record with a fresh id.
// The same command can finish more than once (retry processor, fallback),
// so the command id is kept separately.
func FromResult(r coordinator.Result, at time.Time) Execution {
	return Execution{
		ID:           uuid.NewString(),
		CommandID:    r.ID,
		Action:       string(r.Action),
		Target:       r.Target,
		Success:      r.Success,
		Attempts:     r.Attempts,
		FallbackUsed: r.FallbackUsed,
		Error:        r.Error,
		DurationMS:   r.Duration.Milliseconds(),
		RecordedAt:   at.UTC(),
	}
}
