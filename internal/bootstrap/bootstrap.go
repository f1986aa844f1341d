package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	backendinadapter "neurocal/internal/modules/backend/adapter/in"
	backendoutadapter "neurocal/internal/modules/backend/adapter/out"
	backenddomain "neurocal/internal/modules/backend/domain"
	backendservice "neurocal/internal/modules/backend/service"
	backendusecase "neurocal/internal/modules/backend/usecase"
	calibrationinadapter "neurocal/internal/modules/calibration/adapter/in"
	calibrationoutadapter "neurocal/internal/modules/calibration/adapter/out"
	calibrationdomain "neurocal/internal/modules/calibration/domain"
	calibrationdto "neurocal/internal/modules/calibration/dto"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	calibrationservice "neurocal/internal/modules/calibration/service"
	calibrationusecase "neurocal/internal/modules/calibration/usecase"
	smootherinadapter "neurocal/internal/modules/smoother/adapter/in"
	smootheroutadapter "neurocal/internal/modules/smoother/adapter/out"
	smootherdomain "neurocal/internal/modules/smoother/domain"
	smootherdto "neurocal/internal/modules/smoother/dto"
	smootherservice "neurocal/internal/modules/smoother/service"
	smootherusecase "neurocal/internal/modules/smoother/usecase"
	"neurocal/internal/platform/clock"
	"neurocal/internal/platform/config"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/httpclient"
	"neurocal/internal/platform/id"
	"neurocal/internal/platform/tx"
	uiapp "neurocal/internal/ui/app"
)

const (
	shutdownTimeout = 10 * time.Second
	// drainTimeout bounds how long exit waits for a cancel notice to go out.
	drainTimeout = 5 * time.Second
)

// Plan names accepted on the command line.
const (
	PlanCogload = "cogload"
	PlanFocus   = "focus"
)

type CalibrationApp struct {
	TUI    calibrationinadapter.TUIHandler
	Events <-chan calibrationdto.PresenterEvent

	client *httpclient.Client
	logger zerolog.Logger
}

type MonitorApp struct {
	TUI    smootherinadapter.TUIHandler
	Frames <-chan smootherdto.FrameOutput
}

type BackendApp struct {
	Handler http.Handler
	close   func() error
}

func (a *BackendApp) Close() error { return a.close() }

// ResolvePlan builds the named plan from configuration, or loads it from the
// configured plan file.
func ResolvePlan(ctx context.Context, cfg config.Config, name string) (calibrationdomain.Plan, error) {
	var fallback calibrationdomain.Plan
	var path string
	switch name {
	case PlanCogload:
		c := cfg.Cogload
		path = c.PlanFile
		fallback = calibrationdomain.CogloadPlan(calibrationdomain.CogloadOptions{
			Clips:            c.Clips,
			ClipSeconds:      c.ClipSeconds,
			CountdownSeconds: c.CountdownSeconds,
			GapSeconds:       c.GapSeconds,
			Answers:          c.Answers,
			Unload:           calibrationdomain.UnloadPolicy(c.Unload),
			OnFailure:        calibrationdomain.FailurePolicy(c.ReportOnFailure),
			Collection:       calibrationdomain.Collection{Begin: c.Collection.Begin, Stop: c.Collection.Stop},
		})
	case PlanFocus:
		c := cfg.Focus
		path = c.PlanFile
		fallback = calibrationdomain.FocusPlan(calibrationdomain.FocusOptions{
			CountdownSeconds: c.CountdownSeconds,
			FocusSeconds:     c.FocusSeconds,
			UnfocusSeconds:   c.UnfocusSeconds,
			TargetEvery:      c.TargetEvery,
			Unload:           calibrationdomain.UnloadPolicy(c.Unload),
			OnFailure:        calibrationdomain.FailurePolicy(c.ReportOnFailure),
			Collection:       calibrationdomain.Collection{Begin: c.Collection.Begin, Stop: c.Collection.Stop},
		})
	default:
		return calibrationdomain.Plan{}, fmt.Errorf("%w: unknown plan %q", apperrors.ErrInvalidInput, name)
	}
	return calibrationoutadapter.NewMarkdownPlanSource(path, fallback).Load(ctx)
}

func RenderPlan(plan calibrationdomain.Plan) (string, error) {
	return calibrationoutadapter.RenderPlan(plan)
}

func NewCalibration(ctx context.Context, cfg config.Config, name string, logger zerolog.Logger) (*CalibrationApp, error) {
	plan, err := ResolvePlan(ctx, cfg, name)
	if err != nil {
		return nil, err
	}
	client := httpclient.New(cfg.BackendURL, cfg.HTTPTimeout)
	presenter := calibrationoutadapter.NewPresenterRelay(logger)
	archive := runArchive(cfg)

	opts := []calibrationservice.Option{calibrationservice.WithLogger(logger)}
	if cfg.LaunchStimulus {
		opts = append(opts, calibrationservice.WithLauncher(calibrationoutadapter.NewOSStimulusLauncher(cfg.BackendURL)))
	}
	if archive != nil {
		opts = append(opts, calibrationservice.WithArchive(archive))
	}
	seq, err := calibrationservice.NewSequencer(
		clock.System(),
		id.UUID{},
		plan,
		presenter,
		calibrationoutadapter.NewHTTPCollector(client, logger),
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return &CalibrationApp{
		TUI:    calibrationinadapter.NewTUIHandler(calibrationusecase.NewInteractor(seq, archive)),
		Events: presenter.Events(),
		client: client,
		logger: logger,
	}, nil
}

// NewRunHistory gives read access to the run archive. The sequencer behind it
// is never started, so nothing reaches the backend.
func NewRunHistory(ctx context.Context, cfg config.Config, logger zerolog.Logger) (calibrationinadapter.TUIHandler, error) {
	app, err := NewCalibration(ctx, cfg, PlanCogload, logger)
	if err != nil {
		return calibrationinadapter.TUIHandler{}, err
	}
	return app.TUI, nil
}

func runArchive(cfg config.Config) calibrationout.RunArchive {
	if cfg.ArchiveDir == "" {
		return nil
	}
	return calibrationoutadapter.NewMarkdownRunArchive(cfg.ArchiveDir)
}

func RunCalibration(ctx context.Context, app *CalibrationApp) error {
	model := uiapp.NewCalibration(ctx, app.TUI, app.Events)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	leaveCalibration(app, final)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// leaveCalibration runs when the terminal UI is gone, however it ended. A run
// still in progress is unloaded unless the UI already notified the backend,
// then the sequencer is reset and pending notices get drainTimeout to go out.
func leaveCalibration(app *CalibrationApp, final tea.Model) {
	ctx := context.Background()
	if m, ok := final.(uiapp.Model); !ok || !m.Notified() {
		app.TUI.Unload(ctx)
	}
	_ = app.TUI.Reset(ctx)
	if !app.client.Drain(drainTimeout) {
		app.logger.Warn().Dur("timeout", drainTimeout).Msg("backend notices still pending at exit")
	}
}

func NewMonitor(cfg config.Config, logger zerolog.Logger) (*MonitorApp, error) {
	metric, err := smootherdomain.ParseMetric(cfg.Monitor.Metric)
	if err != nil {
		return nil, err
	}
	client := httpclient.New(cfg.BackendURL, cfg.HTTPTimeout)
	display := smootheroutadapter.NewFrameRelay()
	svc, err := smootherservice.NewSmoother(
		clock.System(),
		smootheroutadapter.NewHTTPMetricSource(client),
		display,
		smootherservice.Settings{
			Metric:         metric,
			PollInterval:   cfg.Monitor.PollInterval,
			RenderInterval: cfg.Monitor.RenderInterval,
			BaseRate:       cfg.Monitor.BaseRate,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}
	return &MonitorApp{
		TUI:    smootherinadapter.NewTUIHandler(smootherusecase.NewInteractor(svc)),
		Frames: display.Frames(),
	}, nil
}

// RunMonitor runs the smoother loops and the terminal UI together. Either
// one ending stops the other.
func RunMonitor(ctx context.Context, app *MonitorApp) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	model := uiapp.NewMonitor(ctx, app.TUI, app.Frames)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return app.TUI.Run(ctx)
	})
	return g.Wait()
}

func NewBackend(cfg config.Config, logger zerolog.Logger) (*BackendApp, error) {
	journal, err := backendoutadapter.OpenSQLiteJournal(cfg.Serve.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	clk := clock.System()
	svc := backendservice.NewBackendService(
		clk,
		id.UUID{},
		backenddomain.NewSignal(uint64(cfg.Serve.Seed), clk.Now()),
		journal,
		tx.SQLManager{DB: journal.DB()},
		logger,
	)
	handler := backendinadapter.NewHTTPHandler(backendusecase.NewInteractor(svc), cfg.Serve.VideosDir, logger)
	return &BackendApp{Handler: handler.Routes(), close: journal.Close}, nil
}

// Serve listens on addr until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, addr string, app *BackendApp, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
