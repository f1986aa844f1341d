package dto

import "time"

type StartOutput struct {
	RunID string
	Plan  string
}

type RespondInput struct {
	Answer string
}

type UnloadOutput struct {
	Running  bool
	Notified bool
	Confirm  bool
}

type StatusOutput struct {
	RunID       string
	Plan        string
	State       string
	Running     bool
	Index       int
	Total       int
	Phase       string
	Kind        string
	Text        string
	Answers     []string
	Remaining   int
	Timer       string
	Progress    float64
	Records     int
	Results     string
	ReportError string
}

type PhaseOutput struct {
	Name     string
	Kind     string
	Duration int
	Text     string
	Stimulus string
	Answers  []string
	Mark     string
}

type PlanOutput struct {
	Name         string
	Mode         string
	Unload       string
	Instructions string
	Phases       []PhaseOutput
}

type RunOutput struct {
	RunID       string
	Plan        string
	Mode        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     int
	Timestamps  int
	Reported    bool
	ReportError string
	Path        string
}

// Presenter event kinds.
const (
	EventPhase        = "phase"
	EventProgress     = "progress"
	EventTimer        = "timer"
	EventStimulus     = "stimulus"
	EventStopStimulus = "stop_stimulus"
	EventTarget       = "target"
	EventResults      = "results"
	EventAlert        = "alert"
)

// PresenterEvent is one presenter call, delivered to a UI in call order.
type PresenterEvent struct {
	Kind     string
	Phase    string
	Progress float64
	Timer    string
	Stimulus string
	X, Y     float64
	Results  string
	Alert    string
}
