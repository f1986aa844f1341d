package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"neurocal/internal/modules/smoother/domain"
	smootherout "neurocal/internal/modules/smoother/port/out"
	"neurocal/internal/platform/clock"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/metrics"
)

type Settings struct {
	Metric         domain.Metric
	PollInterval   time.Duration
	RenderInterval time.Duration
	BaseRate       float64
}

func (s Settings) Validate() error {
	if _, err := domain.ParseMetric(string(s.Metric)); err != nil {
		return err
	}
	if s.PollInterval <= 0 || s.RenderInterval <= 0 {
		return fmt.Errorf("%w: poll and render intervals must be positive", apperrors.ErrInvalidInput)
	}
	if s.RenderInterval > s.PollInterval {
		return fmt.Errorf("%w: render interval %s exceeds poll interval %s", apperrors.ErrInvalidInput, s.RenderInterval, s.PollInterval)
	}
	return nil
}

// Smoother polls a metric on one cadence and renders an interpolated value
// on a faster one. The sample pair is only written by the poller and only
// read by the renderer.
type Smoother struct {
	clock    clock.Clock
	source   smootherout.MetricSource
	display  smootherout.Display
	settings Settings
	logger   zerolog.Logger

	mu   sync.Mutex
	pair domain.Pair
	last domain.Frame
}

func NewSmoother(clk clock.Clock, source smootherout.MetricSource, display smootherout.Display, settings Settings, logger zerolog.Logger) (*Smoother, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Smoother{
		clock:    clk,
		source:   source,
		display:  display,
		settings: settings,
		logger:   logger.With().Str("component", "smoother").Str("metric", string(settings.Metric)).Logger(),
		pair:     domain.NewPair(domain.StepsPerInterval(settings.PollInterval, settings.RenderInterval)),
	}
	s.last = domain.Map(settings.Metric, s.pair, settings.BaseRate)
	return s, nil
}

func (s *Smoother) Settings() Settings {
	return s.settings
}

func (s *Smoother) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair.Steps
}

// Run fetches and renders once straight away, then keeps both loops going
// until ctx is done.
func (s *Smoother) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_ = s.PollOnce(ctx)
		return s.every(ctx, s.settings.PollInterval, func() { _ = s.PollOnce(ctx) })
	})
	g.Go(func() error {
		s.RenderOnce()
		return s.every(ctx, s.settings.RenderInterval, func() { s.RenderOnce() })
	})
	return g.Wait()
}

func (s *Smoother) every(ctx context.Context, d time.Duration, fn func()) error {
	ticker := s.clock.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			fn()
		}
	}
}

// PollOnce fetches one sample. A failed fetch leaves the pair unchanged.
func (s *Smoother) PollOnce(ctx context.Context) error {
	reading, err := s.source.Fetch(ctx)
	if err != nil {
		metrics.Polls.WithLabelValues("error").Inc()
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("fetch metric")
		}
		return err
	}
	value := reading.Value(s.settings.Metric)
	s.mu.Lock()
	s.pair = s.pair.Shift(value)
	s.mu.Unlock()
	metrics.Polls.WithLabelValues("ok").Inc()
	s.logger.Debug().Float64("value", value).Msg("sample")
	return nil
}

// RenderOnce draws the current step and moves one step toward the newest sample.
func (s *Smoother) RenderOnce() domain.Frame {
	s.mu.Lock()
	frame := domain.Map(s.settings.Metric, s.pair, s.settings.BaseRate)
	s.pair = s.pair.Advance()
	s.last = frame
	s.mu.Unlock()

	metrics.DisplayedMetric.WithLabelValues(string(s.settings.Metric)).Set(frame.Displayed)
	s.display.Render(frame)
	return frame
}

func (s *Smoother) Pair() domain.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *Smoother) LastFrame() domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
