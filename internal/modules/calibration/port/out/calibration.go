package out

import (
	"context"

	"neurocal/internal/modules/calibration/domain"
)

// Presenter is the render target. Calls arrive in phase order and must not block.
type Presenter interface {
	ShowPhase(name string)
	SetProgress(fraction float64)
	SetTimerText(text string)
	PlayStimulus(path string)
	StopStimulus()
	MoveTarget(x, y float64)
	ShowResults(raw string)
	Alert(message string)
}

type Collector interface {
	BeginCollection(ctx context.Context) error
	EndCollection(ctx context.Context, action string) error
	// CancelCollection must return immediately; delivery is best effort.
	CancelCollection(ctx context.Context)
	SubmitRecords(ctx context.Context, records []domain.CalibrationRecord) error
	SubmitTimestamps(ctx context.Context, stamps domain.TimestampSet) error
}

type StimulusLauncher interface {
	Open(ctx context.Context, path string) error
}

type PlanSource interface {
	Load(ctx context.Context) (domain.Plan, error)
}

// RunArchive keeps finished runs on the local disk.
type RunArchive interface {
	Save(ctx context.Context, run domain.Run) (string, error)
	List(ctx context.Context) ([]domain.RunSummary, error)
}
