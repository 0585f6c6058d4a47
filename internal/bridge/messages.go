package bridge

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// ActionBatch is the command topic that runs a coordinated sequence.
const ActionBatch = "batch"

// CommandMessage is one navigation command.
// Topic: motion/command/{action}
type CommandMessage struct {
	// ID correlates the command with its result. Generated when empty.
	ID string `json:"id,omitempty"`

	Target     string         `json:"target"`
	Priority   string         `json:"priority,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Options    OptionsMessage `json:"options"`
}

// OptionsMessage carries effect options with millisecond timings.
type OptionsMessage struct {
	DelayMS              int64   `json:"delay_ms,omitempty"`
	Easing               string  `json:"easing,omitempty"`
	StaggerMS            int64   `json:"stagger_ms,omitempty"`
	Intensity            string  `json:"intensity,omitempty"`
	Direction            string  `json:"direction,omitempty"`
	Spread               string  `json:"spread,omitempty"`
	SelectedIndex        *int    `json:"selected_index,omitempty"`
	Distance             float64 `json:"distance,omitempty"`
	Count                int     `json:"count,omitempty"`
	Seed                 int64   `json:"seed,omitempty"`
	RespectReducedMotion *bool   `json:"respect_reduced_motion,omitempty"`
	FallbackOnError      *bool   `json:"fallback_on_error,omitempty"`
}

// BatchMessage is a coordinated sequence.
// Topic: motion/command/batch
type BatchMessage struct {
	ID       string         `json:"id,omitempty"`
	Commands []BatchCommand `json:"commands"`
}

// BatchCommand is one member of a batch. The action travels in the body
// because every member shares the batch topic.
type BatchCommand struct {
	Action string `json:"action"`
	CommandMessage
}

// ResultMessage reports the outcome of one command.
// Topic: motion/result
type ResultMessage struct {
	CommandID    string    `json:"command_id"`
	Action       string    `json:"action"`
	Target       string    `json:"target,omitempty"`
	Success      bool      `json:"success"`
	Attempts     int       `json:"attempts"`
	FallbackUsed bool      `json:"fallback_used"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// BatchResultMessage reports the outcome of a batch.
// Topic: motion/result
type BatchResultMessage struct {
	SequenceID string          `json:"sequence_id"`
	Results    []ResultMessage `json:"results"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Error      string          `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// MutationMessage mirrors one stage property write.
// Topic: motion/mutation/{handle}
type MutationMessage struct {
	Handle     string          `json:"handle"`
	Tag        string          `json:"tag,omitempty"`
	Properties host.Properties `json:"properties"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Command converts m into a coordinator command for action.
func (m CommandMessage) Command(action string) (coordinator.Command, error) {
	prio, err := queue.ParsePriority(m.Priority)
	if err != nil {
		return coordinator.Command{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if m.DurationMS < 0 {
		return coordinator.Command{}, fmt.Errorf("%w: negative duration", ErrInvalidMessage)
	}
	return coordinator.Command{
		ID:       m.ID,
		Action:   coordinator.Action(action),
		Target:   m.Target,
		Priority: prio,
		Duration: ms(m.DurationMS),
		Options:  m.Options.effectOptions(),
	}, nil
}

func (o OptionsMessage) effectOptions() effects.Options {
	return effects.Options{
		Delay:                ms(o.DelayMS),
		Easing:               o.Easing,
		Stagger:              ms(o.StaggerMS),
		Intensity:            effects.Intensity(o.Intensity),
		Direction:            effects.Direction(o.Direction),
		Spread:               effects.Spread(o.Spread),
		SelectedIndex:        o.SelectedIndex,
		Distance:             o.Distance,
		Count:                o.Count,
		Seed:                 o.Seed,
		RespectReducedMotion: o.RespectReducedMotion,
		FallbackOnError:      o.FallbackOnError,
	}
}

// Commands converts every member of the batch.
func (m BatchMessage) Commands() ([]coordinator.Command, error) {
	if len(m.Commands) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidMessage)
	}
	cmds := make([]coordinator.Command, 0, len(m.Commands))
	for i, bc := range m.Commands {
		cmd, err := bc.Command(bc.Action)
		if err != nil {
			return nil, fmt.Errorf("batch member %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// NewResultMessage converts a coordinator result.
func NewResultMessage(r coordinator.Result, at time.Time) ResultMessage {
	return ResultMessage{
		CommandID:    r.ID,
		Action:       string(r.Action),
		Target:       r.Target,
		Success:      r.Success,
		Attempts:     r.Attempts,
		FallbackUsed: r.FallbackUsed,
		Error:        r.Error,
		DurationMS:   r.Duration.Milliseconds(),
		Timestamp:    at.UTC(),
	}
}

// NewBatchResultMessage converts a coordinated batch outcome. err is the
// batch-level error, if any.
func NewBatchResultMessage(b coordinator.BatchResult, err error, at time.Time) BatchResultMessage {
	msg := BatchResultMessage{
		SequenceID: b.SequenceID,
		Results:    make([]ResultMessage, 0, len(b.Results)),
		Succeeded:  b.Succeeded,
		Failed:     b.Failed,
		Timestamp:  at.UTC(),
	}
	for _, r := range b.Results {
		msg.Results = append(msg.Results, NewResultMessage(r, at))
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
