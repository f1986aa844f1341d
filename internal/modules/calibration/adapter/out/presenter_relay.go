package out

import (
	"github.com/rs/zerolog"

	calibrationdto "neurocal/internal/modules/calibration/dto"
	calibrationout "neurocal/internal/modules/calibration/port/out"
)

const relayBuffer = 1024

// PresenterRelay turns presenter calls into events on a buffered channel so
// the sequencer never waits on the UI. Events are dropped only once the
// buffer is full, which means nothing is reading any more.
type PresenterRelay struct {
	events chan calibrationdto.PresenterEvent
	logger zerolog.Logger
}

var _ calibrationout.Presenter = (*PresenterRelay)(nil)

func NewPresenterRelay(logger zerolog.Logger) *PresenterRelay {
	return &PresenterRelay{
		events: make(chan calibrationdto.PresenterEvent, relayBuffer),
		logger: logger.With().Str("component", "presenter").Logger(),
	}
}

func (r *PresenterRelay) Events() <-chan calibrationdto.PresenterEvent {
	return r.events
}

func (r *PresenterRelay) ShowPhase(name string) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventPhase, Phase: name})
}

func (r *PresenterRelay) SetProgress(fraction float64) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventProgress, Progress: fraction})
}

func (r *PresenterRelay) SetTimerText(text string) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventTimer, Timer: text})
}

func (r *PresenterRelay) PlayStimulus(path string) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventStimulus, Stimulus: path})
}

func (r *PresenterRelay) StopStimulus() {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventStopStimulus})
}

func (r *PresenterRelay) MoveTarget(x, y float64) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventTarget, X: x, Y: y})
}

func (r *PresenterRelay) ShowResults(raw string) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventResults, Results: raw})
}

func (r *PresenterRelay) Alert(message string) {
	r.emit(calibrationdto.PresenterEvent{Kind: calibrationdto.EventAlert, Alert: message})
}

func (r *PresenterRelay) emit(e calibrationdto.PresenterEvent) {
	select {
	case r.events <- e:
	default:
		r.logger.Warn().Str("kind", e.Kind).Msg("presenter event dropped")
	}
}
