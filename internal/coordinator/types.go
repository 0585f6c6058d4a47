package coordinator

import (
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// Action is a high-level navigation intent.
type Action string

// Supported actions.
const (
	ActionNavigate  Action = "navigate"
	ActionScroll    Action = "scroll"
	ActionModal     Action = "modal"
	ActionHighlight Action = "highlight"
	ActionFocus     Action = "focus"
)

// Actions lists every supported action.
func Actions() []Action {
	return []Action{ActionNavigate, ActionScroll, ActionModal, ActionHighlight, ActionFocus}
}

// phases is the order ExecuteCoordinated runs actions in.
var phases = [][]Action{
	{ActionNavigate, ActionScroll},
	{ActionModal},
	{ActionHighlight},
	{ActionFocus},
}

// Command is one navigation intent.
type Command struct {
	ID       string
	Action   Action
	Target   string
	Priority queue.Priority
	Duration time.Duration
	Options  effects.Options
}

// ValidationResult reports what is wrong with a command. Warnings never
// make a command invalid.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Result is the outcome of one command.
type Result struct {
	ID           string        `json:"id"`
	Action       Action        `json:"action"`
	Target       string        `json:"target"`
	Success      bool          `json:"success"`
	Attempts     int           `json:"attempts"`
	FallbackUsed bool          `json:"fallback_used"`
	Err          error         `json:"-"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// BatchResult is the outcome of ExecuteCoordinated, in input order.
type BatchResult struct {
	SequenceID string   `json:"sequence_id"`
	Results    []Result `json:"results"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
}

// InterfaceState tracks which elements are open, highlighted and focused.
type InterfaceState struct {
	ActiveModal string `json:"active_modal,omitempty"`
	Highlighted string `json:"highlighted,omitempty"`
	Focused     string `json:"focused,omitempty"`
}

// NavigationState tracks the current location and where it came from.
type NavigationState struct {
	Current string   `json:"current,omitempty"`
	History []string `json:"history"`
}

// CoordinationState reports what the coordinator is doing.
type CoordinationState struct {
	ActiveSequenceID string    `json:"active_sequence_id,omitempty"`
	QueuedCommands   []string  `json:"queued_commands"`
	LastSync         time.Time `json:"last_sync"`
	IsCoordinating   bool      `json:"is_coordinating"`
}

// FailedCommand is one entry of the failure log.
type FailedCommand struct {
	ID     string    `json:"id"`
	Action Action    `json:"action"`
	Target string    `json:"target"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}

// ReliabilityState summarises failures and recoveries.
type ReliabilityState struct {
	FailedCommands []FailedCommand `json:"failed_commands"`
	RetryAttempts  int             `json:"retry_attempts"`
	FallbacksUsed  int             `json:"fallbacks_used"`
	SuccessRate    float64         `json:"success_rate"`
}

// State is a snapshot of the coordinator.
type State struct {
	Interface    InterfaceState    `json:"interface"`
	Navigation   NavigationState   `json:"navigation"`
	Coordination CoordinationState `json:"coordination"`
	Reliability  ReliabilityState  `json:"reliability"`
}

func (s State) clone() State {
	out := s
	out.Navigation.History = slices.Clone(s.Navigation.History)
	out.Coordination.QueuedCommands = slices.Clone(s.Coordination.QueuedCommands)
	out.Reliability.FailedCommands = slices.Clone(s.Reliability.FailedCommands)
	return out
}
