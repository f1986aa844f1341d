package domain

type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateCountdown State = "countdown"
	StateActive    State = "active"
	StateResults   State = "results"
)

// Running reports whether leaving now would abandon a sequence.
func (s State) Running() bool {
	return s == StateStarting || s == StateCountdown || s == StateActive
}

// View names handed to the presenter in addition to phase names.
const (
	ViewHidden  = ""
	ViewStart   = "start"
	ViewResults = "results"
)

// Actions sent to the collection endpoint.
const (
	ActionStop   = "stop"
	ActionCancel = "cancel"
)

// UnloadDecision tells the host what happened when it tried to leave.
type UnloadDecision struct {
	Running  bool
	Notified bool
	Confirm  bool
}

// Snapshot is a point-in-time view of the sequencer.
type Snapshot struct {
	RunID      string
	State      State
	Index      int
	Phase      string
	Kind       Kind
	Remaining  int
	Records    []CalibrationRecord
	Timestamps TimestampSet
	Results    string
	ReportErr  error
}
