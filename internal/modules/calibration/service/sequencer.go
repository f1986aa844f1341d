package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"neurocal/internal/modules/calibration/domain"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	"neurocal/internal/platform/clock"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/id"
	"neurocal/internal/platform/metrics"
)

const (
	startFailedAlert  = "Failed to start calibration. Please try again."
	reportFailedAlert = "Failed to complete calibration. Please try again."
)

// Sequencer walks a plan one phase at a time. Every entry point takes mu, so
// timer callbacks, answers, reset and unload are applied one at a time in the
// order they win the lock. Each entered phase gets a new generation; a timer
// that fires for an older generation does nothing.
type Sequencer struct {
	clock     clock.Clock
	ids       id.Generator
	plan      domain.Plan
	presenter calibrationout.Presenter
	collector calibrationout.Collector
	launcher  calibrationout.StimulusLauncher
	archive   calibrationout.RunArchive
	logger    zerolog.Logger
	random    func() float64

	mu         sync.Mutex
	state      domain.State
	index      int
	generation uint64
	active     bool
	remaining  int
	tickers    []clockwork.Ticker
	cancel     chan struct{}
	records    []domain.CalibrationRecord
	open       int
	stamps     domain.TimestampSet
	runID      string
	runCtx     context.Context
	startedAt  time.Time
	results    string
	reportErr  error
}

type Option func(*Sequencer)

func WithLauncher(l calibrationout.StimulusLauncher) Option {
	return func(s *Sequencer) { s.launcher = l }
}

// WithArchive saves every finished run after it has been reported.
func WithArchive(a calibrationout.RunArchive) Option {
	return func(s *Sequencer) { s.archive = a }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// WithRandom replaces the source of target positions. f must return values in [0, 1).
func WithRandom(f func() float64) Option {
	return func(s *Sequencer) { s.random = f }
}

func NewSequencer(clk clock.Clock, ids id.Generator, plan domain.Plan, presenter calibrationout.Presenter, collector calibrationout.Collector, opts ...Option) (*Sequencer, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	s := &Sequencer{
		clock:     clk,
		ids:       ids,
		plan:      plan,
		presenter: presenter,
		collector: collector,
		logger:    zerolog.Nop(),
		random:    rand.Float64,
		state:     domain.StateIdle,
		index:     -1,
		open:      -1,
		stamps:    domain.TimestampSet{},
		runCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "sequencer").Str("plan", plan.Name).Logger()
	return s, nil
}

func (s *Sequencer) Plan() domain.Plan {
	return s.plan
}

// Start begins the plan from phase 0. When the plan asks for it, the backend
// must acknowledge the start of collection first; a failed acknowledgement
// alerts the user and leaves the sequencer idle.
func (s *Sequencer) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state.Running() {
		s.mu.Unlock()
		return "", apperrors.ErrSequenceActive
	}
	s.stopTimersLocked()
	s.state = domain.StateStarting
	s.index = -1
	s.records = nil
	s.open = -1
	s.stamps = domain.TimestampSet{}
	s.results = ""
	s.reportErr = nil
	s.runID = s.ids.New()
	s.runCtx = id.WithRun(context.WithoutCancel(ctx), s.runID)
	gen := s.generation
	runID, runCtx := s.runID, s.runCtx
	s.presenter.ShowResults("")
	s.presenter.ShowPhase(domain.ViewHidden)
	s.mu.Unlock()

	log := s.logger.With().Str("run_id", runID).Logger()
	if s.plan.Collection.Begin {
		if err := s.collector.BeginCollection(runCtx); err != nil {
			s.mu.Lock()
			if s.generation == gen && s.state == domain.StateStarting {
				s.state = domain.StateIdle
				s.presenter.ShowPhase(domain.ViewStart)
			}
			s.mu.Unlock()
			metrics.Sequences.WithLabelValues("aborted").Inc()
			log.Error().Err(err).Msg("begin collection failed")
			s.presenter.Alert(startFailedAlert)
			return "", fmt.Errorf("begin collection: %w", err)
		}
		log.Info().Msg("collection started")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state != domain.StateStarting {
		return "", fmt.Errorf("%w: reset before collection was acknowledged", apperrors.ErrAbandoned)
	}
	s.startedAt = s.clock.Now()
	s.stamps[domain.CalibrationStartKey] = clock.UnixSeconds(s.startedAt)
	log.Info().Int("phases", len(s.plan.Phases)).Msg("calibration started")
	s.enterLocked(0)
	return runID, nil
}

// Respond answers the active response phase and advances. When the answer
// completes the plan, Respond returns after the report has been sent.
func (s *Sequencer) Respond(_ context.Context, answer string) error {
	s.mu.Lock()
	if !s.active || s.index < 0 || s.plan.Phases[s.index].Kind != domain.KindResponse {
		s.mu.Unlock()
		return apperrors.ErrNoResponsePhase
	}
	phase := s.plan.Phases[s.index]
	if !phase.Accepts(answer) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q not in %v", apperrors.ErrUnknownAnswer, answer, phase.Answers)
	}
	s.answerLocked(answer)
	report := s.advanceLocked()
	s.mu.Unlock()

	if report != nil {
		report()
	}
	return nil
}

// Reset cancels pending timers and returns to the start view. Nothing is sent.
func (s *Sequencer) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Running() {
		if s.index >= 0 && s.plan.Phases[s.index].Stimulus != "" {
			s.presenter.StopStimulus()
		}
		metrics.Sequences.WithLabelValues("reset").Inc()
		s.logger.Info().Str("run_id", s.runID).Int("index", s.index).Msg("calibration reset mid-sequence")
	}
	s.stopTimersLocked()
	s.state = domain.StateIdle
	s.index = -1
	s.records = nil
	s.open = -1
	s.stamps = domain.TimestampSet{}
	s.results = ""
	s.reportErr = nil
	s.remaining = 0
	s.presenter.ShowResults("")
	s.presenter.SetTimerText("")
	s.presenter.SetProgress(0)
	s.presenter.ShowPhase(domain.ViewStart)
}

// Unload is called when the host is about to go away. A running sequence is
// reported to the backend without waiting, asks for confirmation, or both.
func (s *Sequencer) Unload(_ context.Context) domain.UnloadDecision {
	s.mu.Lock()
	running := s.state.Running()
	runID, runCtx := s.runID, s.runCtx
	s.mu.Unlock()

	if !running {
		return domain.UnloadDecision{}
	}
	decision := domain.UnloadDecision{Running: true}
	if s.plan.Unload.Notifies() {
		s.collector.CancelCollection(runCtx)
		decision.Notified = true
	}
	decision.Confirm = s.plan.Unload.Confirms()
	metrics.Sequences.WithLabelValues("abandoned").Inc()
	s.logger.Warn().Str("run_id", runID).Bool("notified", decision.Notified).Msg("host leaving mid-sequence")
	return decision
}

func (s *Sequencer) Status() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := domain.Snapshot{
		RunID:      s.runID,
		State:      s.state,
		Index:      s.index,
		Remaining:  s.remaining,
		Records:    domain.CloneRecords(s.records),
		Timestamps: s.stamps.Clone(),
		Results:    s.results,
		ReportErr:  s.reportErr,
	}
	if s.index >= 0 && s.index < len(s.plan.Phases) {
		snap.Phase = s.plan.Phases[s.index].Name
		snap.Kind = s.plan.Phases[s.index].Kind
	}
	return snap
}

// ─── phase machinery ─────────────────────────────────────────────────────────

func (s *Sequencer) enterLocked(i int) {
	phase := s.plan.Phases[i]
	now := s.clock.Now()
	s.index = i
	s.generation++
	gen := s.generation
	s.active = true
	s.cancel = make(chan struct{})
	if phase.Kind == domain.KindCountdown {
		s.state = domain.StateCountdown
	} else {
		s.state = domain.StateActive
	}
	metrics.PhaseTransitions.WithLabelValues(string(phase.Kind)).Inc()
	s.logger.Debug().Str("run_id", s.runID).Int("index", i).Str("phase", phase.Name).Msg("enter phase")

	s.presenter.ShowPhase(phase.Name)
	if phase.Record {
		s.records = append(s.records, domain.CalibrationRecord{StartTime: now.Unix()})
		s.open = len(s.records) - 1
	}
	if phase.Mark != "" {
		s.stamps[domain.StartKey(phase.Mark)] = clock.UnixSeconds(now)
	}
	if phase.Stimulus != "" {
		s.presenter.PlayStimulus(phase.Stimulus)
		if s.launcher != nil {
			if err := s.launcher.Open(s.runCtx, phase.Stimulus); err != nil {
				s.logger.Warn().Err(err).Str("stimulus", phase.Stimulus).Msg("launch stimulus")
			}
		}
	}

	s.remaining = 0
	if phase.Timed() {
		s.remaining = phase.Duration
		s.presenter.SetTimerText(domain.TimerText(phase.Kind, s.remaining))
		s.presenter.SetProgress(0)
		s.every(time.Second, gen, s.tick)
	} else {
		s.presenter.SetTimerText("")
	}
	if phase.TargetEvery > 0 {
		s.presenter.MoveTarget(s.random(), s.random())
		s.every(phase.TargetEvery, gen, s.moveTarget)
	}
}

// every runs fn on a ticker until the phase that armed it is left.
func (s *Sequencer) every(d time.Duration, gen uint64, fn func(uint64)) {
	ticker := s.clock.NewTicker(d)
	s.tickers = append(s.tickers, ticker)
	cancel := s.cancel
	go func() {
		for {
			select {
			case <-cancel:
				return
			case <-ticker.Chan():
				fn(gen)
			}
		}
	}()
}

func (s *Sequencer) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.active {
		s.mu.Unlock()
		return
	}
	phase := s.plan.Phases[s.index]
	s.remaining--
	s.presenter.SetTimerText(domain.TimerText(phase.Kind, s.remaining))
	s.presenter.SetProgress(domain.Progress(phase.Duration, s.remaining))
	var report func()
	if s.remaining <= 0 {
		if phase.Kind == domain.KindResponse && phase.TimeoutAnswer != "" {
			s.answerLocked(phase.TimeoutAnswer)
		}
		report = s.advanceLocked()
	}
	s.mu.Unlock()

	if report != nil {
		report()
	}
}

func (s *Sequencer) moveTarget(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || !s.active {
		return
	}
	s.presenter.MoveTarget(s.random(), s.random())
}

func (s *Sequencer) answerLocked(answer string) {
	if s.open < 0 {
		return
	}
	a := answer
	s.records[s.open].Answer = &a
	s.open = -1
}

// stopTimersLocked ends the current phase's timers before anything else runs.
func (s *Sequencer) stopTimersLocked() {
	s.active = false
	s.generation++
	for _, t := range s.tickers {
		t.Stop()
	}
	s.tickers = nil
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
}

// advanceLocked leaves the current phase. It returns the report to send when
// the plan is complete; the caller runs it after releasing mu.
func (s *Sequencer) advanceLocked() func() {
	phase := s.plan.Phases[s.index]
	s.stopTimersLocked()
	if phase.Mark != "" {
		s.stamps[domain.EndKey(phase.Mark)] = clock.UnixSeconds(s.clock.Now())
	}
	if phase.Stimulus != "" {
		s.presenter.StopStimulus()
	}
	if s.index+1 < len(s.plan.Phases) {
		s.enterLocked(s.index + 1)
		return nil
	}
	return s.finishLocked()
}

func (s *Sequencer) finishLocked() func() {
	s.state = domain.StateResults
	s.remaining = 0
	s.open = -1
	records := domain.CloneRecords(s.records)
	stamps := s.stamps.Clone()

	var payload any = records
	if s.plan.Mode == domain.ModeTimestamps {
		payload = stamps
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		raw = []byte(err.Error())
	}
	s.results = string(raw)
	s.presenter.ShowPhase(domain.ViewResults)
	s.presenter.ShowResults(s.results)
	metrics.Sequences.WithLabelValues("completed").Inc()

	run := domain.Run{
		ID:         s.runID,
		Plan:       s.plan.Name,
		Mode:       s.plan.Mode,
		StartedAt:  s.startedAt,
		FinishedAt: s.clock.Now(),
		Records:    records,
		Timestamps: stamps,
		Results:    s.results,
	}
	gen, runCtx := s.generation, s.runCtx
	return func() { s.report(runCtx, gen, run) }
}

func (s *Sequencer) report(ctx context.Context, gen uint64, run domain.Run) {
	records, stamps := run.Records, run.Timestamps
	var errs []error
	if s.plan.Collection.Stop {
		if err := s.collector.EndCollection(ctx, domain.ActionStop); err != nil {
			errs = append(errs, fmt.Errorf("stop collection: %w", err))
		}
	}
	switch s.plan.Mode {
	case domain.ModeRecords:
		if err := s.collector.SubmitRecords(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("submit records: %w", err))
		}
	case domain.ModeTimestamps:
		if err := s.collector.SubmitTimestamps(ctx, stamps); err != nil {
			errs = append(errs, fmt.Errorf("submit timestamps: %w", err))
		}
	}
	err := errors.Join(errs...)

	s.mu.Lock()
	if s.generation == gen {
		s.reportErr = err
	}
	s.mu.Unlock()

	log := s.logger.With().Str("run_id", run.ID).Logger()
	if err == nil {
		log.Info().Int("records", len(records)).Int("timestamps", len(stamps)).Msg("calibration reported")
	} else {
		log.Error().Err(err).Msg("report calibration")
		if s.plan.OnFailure == domain.FailureAlert {
			s.presenter.Alert(reportFailedAlert)
		}
	}

	if s.archive == nil {
		return
	}
	run.ReportErr = err
	path, archiveErr := s.archive.Save(ctx, run)
	if archiveErr != nil {
		log.Warn().Err(archiveErr).Msg("archive run")
		return
	}
	log.Debug().Str("path", path).Msg("run archived")
}
