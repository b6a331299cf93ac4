package engine

import "time"

// State is the engine's lifecycle state.
type State int

// Engine states.
const (
	// StateIdle means no run is active. Initial state, and the state
	// between runs.
	StateIdle State = iota

	// StateRunning means a run goroutine is replaying a schedule.
	StateRunning

	// StateStopping means cancellation has been requested and the run
	// goroutine has not yet wound down.
	StateStopping
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// RunStatus is a point-in-time snapshot of the engine for status polling.
type RunStatus struct {
	State            State     `json:"-"`
	StateName        string    `json:"state"`
	RunID            string    `json:"run_id,omitempty"`
	Description      string    `json:"description,omitempty"`
	StartedAt        time.Time `json:"started_at,omitzero"`
	EventsTotal      int       `json:"events_total,omitempty"`
	EventsDispatched int       `json:"events_dispatched,omitempty"`
}

// RunOutcome classifies how a run terminated.
type RunOutcome string

// Run outcomes.
const (
	// OutcomeCompleted: every event dispatched without sink errors.
	OutcomeCompleted RunOutcome = "completed"

	// OutcomeCancelled: Stop was requested before the queue drained.
	// Remaining events were discarded, not executed.
	OutcomeCancelled RunOutcome = "cancelled"

	// OutcomePartial: the queue drained but one or more sink writes
	// failed along the way.
	OutcomePartial RunOutcome = "partial"
)

// DispatchFailure records one sink write that failed mid-run.
type DispatchFailure struct {
	Timestamp int    `json:"timestamp"`
	Channel   int    `json:"channel"`
	Name      string `json:"name"`
	Error     string `json:"error"`
}

// Result describes a terminated run. It is delivered to the completion
// callback and recorded in the run history.
type Result struct {
	RunID            string
	Description      string
	Outcome          RunOutcome
	StartedAt        time.Time
	CompletedAt      time.Time
	EventsTotal      int
	EventsDispatched int
	Failures         []DispatchFailure
}
