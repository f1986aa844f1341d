package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"neurocal/internal/modules/smoother/domain"
	"neurocal/internal/modules/smoother/service"
	apperrors "neurocal/internal/platform/errors"
)

type fakeSource struct {
	mu       sync.Mutex
	readings []domain.Reading
	err      error
	calls    int
	gate     chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) (domain.Reading, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Reading{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Reading{}, f.err
	}
	if len(f.readings) == 0 {
		return domain.Reading{}, nil
	}
	r := f.readings[0]
	if len(f.readings) > 1 {
		f.readings = f.readings[1:]
	}
	return r, nil
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDisplay struct {
	mu     sync.Mutex
	frames []domain.Frame
}

func (d *fakeDisplay) Render(frame domain.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame)
}

func (d *fakeDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

func (d *fakeDisplay) last() domain.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames[len(d.frames)-1]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func cogloadSettings() service.Settings {
	return service.Settings{
		Metric:         domain.MetricCogload,
		PollInterval:   2 * time.Second,
		RenderInterval: 100 * time.Millisecond,
		BaseRate:       1,
	}
}

func TestRenderInterpolatesAcrossPollInterval(t *testing.T) {
	t.Parallel()
	source := &fakeSource{readings: []domain.Reading{{Cogload: 0.5}}}
	display := &fakeDisplay{}
	s, err := service.NewSmoother(clockwork.NewFakeClock(), source, display, cogloadSettings(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new smoother: %v", err)
	}
	if err := s.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	var frame domain.Frame
	for range 11 {
		frame = s.RenderOnce()
	}
	if math.Abs(frame.Displayed-0.25) > 1e-9 || math.Abs(frame.PlaybackRate-1.25) > 1e-9 {
		t.Fatalf("expected 0.25 / 1.25 at step 10, got %+v", frame)
	}
	for range 20 {
		frame = s.RenderOnce()
	}
	if frame.Displayed != 0.5 || s.Pair().Step != 20 {
		t.Fatalf("display must settle on the sample, got %+v pair %+v", frame, s.Pair())
	}
	if display.count() != 31 {
		t.Fatalf("expected every render to reach the display, got %d", display.count())
	}
}

func TestFailedPollKeepsPair(t *testing.T) {
	t.Parallel()
	source := &fakeSource{readings: []domain.Reading{{Cogload: 0.8}}}
	s, err := service.NewSmoother(clockwork.NewFakeClock(), source, &fakeDisplay{}, cogloadSettings(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new smoother: %v", err)
	}
	if err := s.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	s.RenderOnce()
	before := s.Pair()

	source.mu.Lock()
	source.err = apperrors.ErrNetwork
	source.mu.Unlock()
	if err := s.PollOnce(context.Background()); !errors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if s.Pair() != before {
		t.Fatalf("failed poll changed the pair: %+v -> %+v", before, s.Pair())
	}
}

func TestRunKeepsRenderingWhileFetchIsSlow(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClock()
	source := &fakeSource{readings: []domain.Reading{{Cogload: 0.5}}, gate: make(chan struct{})}
	display := &fakeDisplay{}
	s, err := service.NewSmoother(clk, source, display, cogloadSettings(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new smoother: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, "first fetch", func() bool { return source.count() == 1 })
	waitFor(t, "first frame", func() bool { return display.count() == 1 })
	waitFor(t, "render ticker", func() bool {
		c, stop := context.WithTimeout(ctx, 10*time.Millisecond)
		defer stop()
		return clk.BlockUntilContext(c, 1) == nil
	})
	for i := 2; i <= 4; i++ {
		clk.Advance(100 * time.Millisecond)
		want := i
		waitFor(t, "render while fetching", func() bool { return display.count() == want })
	}
	if display.last().Displayed != 0 {
		t.Fatalf("baseline before the first sample must be 0")
	}

	close(source.gate)
	waitFor(t, "sample", func() bool { return s.Pair().Current == 0.5 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunPollsOnItsOwnCadence(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClock()
	source := &fakeSource{readings: []domain.Reading{{Cogload: 0.5}}}
	display := &fakeDisplay{}
	s, err := service.NewSmoother(clk, source, display, cogloadSettings(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new smoother: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, "first fetch", func() bool { return source.count() == 1 && s.Pair().Current == 0.5 })
	blockCtx, stop := context.WithTimeout(ctx, 2*time.Second)
	defer stop()
	if err := clk.BlockUntilContext(blockCtx, 2); err != nil {
		t.Fatalf("tickers never armed: %v", err)
	}
	for i := 1; i <= 20; i++ {
		clk.Advance(100 * time.Millisecond)
		want := i + 1
		waitFor(t, "render", func() bool { return display.count() == want })
	}
	waitFor(t, "second fetch", func() bool { return source.count() == 2 })
	waitFor(t, "second sample", func() bool { return s.Pair().Previous == 0.5 })
	clk.Advance(100 * time.Millisecond)
	waitFor(t, "render after sample", func() bool { return display.count() == 22 })
	if got := display.last(); got.Displayed != 0.5 || got.BarWidth != 50 {
		t.Fatalf("unexpected settled frame %+v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()
	bad := cogloadSettings()
	bad.RenderInterval = 3 * time.Second
	if _, err := service.NewSmoother(clockwork.NewFakeClock(), &fakeSource{}, &fakeDisplay{}, bad, zerolog.Nop()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	bad = cogloadSettings()
	bad.Metric = "alpha"
	if _, err := service.NewSmoother(clockwork.NewFakeClock(), &fakeSource{}, &fakeDisplay{}, bad, zerolog.Nop()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
