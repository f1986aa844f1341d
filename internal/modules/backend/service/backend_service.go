package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"neurocal/internal/modules/backend/domain"
	backendout "neurocal/internal/modules/backend/port/out"
	"neurocal/internal/platform/clock"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/id"
	"neurocal/internal/platform/metrics"
	"neurocal/internal/platform/tx"
)

// BackendService plays the EEG side of a calibration: it publishes live
// metrics, tracks the open collection window and journals every report.
type BackendService struct {
	clock   clock.Clock
	ids     id.Generator
	signal  domain.Signal
	journal backendout.Journal
	tx      tx.Manager
	logger  zerolog.Logger

	mu     sync.Mutex
	window *domain.Window
}

func NewBackendService(clk clock.Clock, ids id.Generator, signal domain.Signal, journal backendout.Journal, txm tx.Manager, logger zerolog.Logger) *BackendService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &BackendService{
		clock:   clk,
		ids:     ids,
		signal:  signal,
		journal: journal,
		tx:      txm,
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

func (s *BackendService) Sample() domain.Reading {
	return s.signal.Sample(s.clock.Now())
}

// Begin opens a collection window. A window left open by an earlier run is
// closed as superseded first.
func (s *BackendService) Begin(ctx context.Context, runID string) (domain.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if s.window != nil {
		prev := *s.window
		prev.EndedAt = now
		prev.Action = domain.ActionSuperseded
		if err := s.journal.SaveWindow(ctx, prev); err != nil {
			return domain.Window{}, err
		}
		s.logger.Warn().Str("window_id", prev.ID).Str("run_id", prev.RunID).Msg("collection superseded")
	}
	w := domain.Window{ID: s.ids.New(), RunID: runID, StartedAt: now}
	if err := s.journal.SaveWindow(ctx, w); err != nil {
		s.window = nil
		metrics.CollectionActive.Set(0)
		return domain.Window{}, err
	}
	s.window = &w
	metrics.CollectionActive.Set(1)
	s.logger.Info().Str("window_id", w.ID).Str("run_id", runID).Msg("collection started")
	return w, nil
}

func (s *BackendService) End(ctx context.Context, runID, action string) (domain.Window, error) {
	act, err := domain.ParseAction(action)
	if err != nil {
		return domain.Window{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window == nil {
		return domain.Window{}, apperrors.ErrNoCollection
	}
	w := *s.window
	if runID != "" && w.RunID != "" && runID != w.RunID {
		return domain.Window{}, fmt.Errorf("%w: run %s does not own the open collection", apperrors.ErrNoCollection, runID)
	}
	w.EndedAt = s.clock.Now()
	w.Action = act
	if err := s.journal.SaveWindow(ctx, w); err != nil {
		return domain.Window{}, err
	}
	s.window = nil
	metrics.CollectionActive.Set(0)
	s.logger.Info().Str("window_id", w.ID).Str("action", string(act)).Dur("length", w.EndedAt.Sub(w.StartedAt)).Msg("collection ended")
	return w, nil
}

func (s *BackendService) SubmitRecords(ctx context.Context, runID string, records []domain.Record) (domain.Submission, error) {
	values, err := domain.RecordValues(records)
	if err != nil {
		return domain.Submission{}, err
	}
	payload := make([]map[string]any, 0, len(records))
	for _, r := range records {
		payload = append(payload, map[string]any{"start_time": r.StartTime, "answer": r.Answer})
	}
	return s.submit(ctx, runID, domain.KindRecords, payload, values)
}

func (s *BackendService) SubmitTimestamps(ctx context.Context, runID string, stamps map[string]float64) (domain.Submission, error) {
	values, err := domain.TimestampValues(stamps)
	if err != nil {
		return domain.Submission{}, err
	}
	return s.submit(ctx, runID, domain.KindTimestamps, stamps, values)
}

func (s *BackendService) submit(ctx context.Context, runID string, kind domain.Kind, payload any, values []domain.Value) (domain.Submission, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("encode submission: %w", err)
	}
	sub := domain.Submission{
		ID:         s.ids.New(),
		RunID:      runID,
		Kind:       kind,
		Payload:    string(raw),
		Count:      len(values),
		ReceivedAt: s.clock.Now(),
	}
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		if err := s.journal.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		return s.journal.SaveValues(ctx, sub.ID, values)
	})
	if err != nil {
		return domain.Submission{}, fmt.Errorf("journal %s submission: %w", kind, err)
	}
	s.logger.Info().Str("submission_id", sub.ID).Str("run_id", runID).Str("kind", string(kind)).Int("count", sub.Count).Msg("calibration received")
	return sub, nil
}

func (s *BackendService) Submissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.journal.ListSubmissions(ctx, limit)
}

func (s *BackendService) Submission(ctx context.Context, submissionID string) (domain.Submission, []domain.Value, error) {
	sub, err := s.journal.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, nil, err
	}
	values, err := s.journal.ListValues(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, nil, err
	}
	return sub, values, nil
}

// Window returns the open collection window, if any.
func (s *BackendService) Window() (domain.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window == nil {
		return domain.Window{}, false
	}
	return *s.window, true
}
