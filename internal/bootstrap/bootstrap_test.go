package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"neurocal/internal/platform/config"
	uiapp "neurocal/internal/ui/app"
)

type collectionBackend struct {
	mu      sync.Mutex
	cancels int
}

func (b *collectionBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var body struct {
			Action string `json:"action"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Action == "cancel" {
			b.mu.Lock()
			b.cancels++
			b.mu.Unlock()
		}
		_, _ = w.Write([]byte(`{"status":"cancelled"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"started","run_id":"r1"}`))
}

func (b *collectionBackend) cancelCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancels
}

func focusApp(t *testing.T, unload string) (*CalibrationApp, *collectionBackend) {
	t.Helper()
	backend := &collectionBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BackendURL = srv.URL
	cfg.ArchiveDir = ""
	cfg.Focus.Unload = unload
	app, err := NewCalibration(context.Background(), cfg, PlanFocus, zerolog.Nop())
	if err != nil {
		t.Fatalf("new calibration: %v", err)
	}
	return app, backend
}

func TestKilledProgramStillCancelsRunningCollection(t *testing.T) {
	t.Parallel()
	app, backend := focusApp(t, config.UnloadNotifyConfirm)
	if _, err := app.TUI.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	leaveCalibration(app, nil)
	if got := backend.cancelCount(); got != 1 {
		t.Fatalf("expected the cancel notice delivered before exit, got %d", got)
	}
	if app.TUI.Status(context.Background()).Running {
		t.Fatalf("sequence must be reset on exit")
	}
}

func TestQuitFromUIDoesNotCancelTwice(t *testing.T) {
	t.Parallel()
	app, backend := focusApp(t, config.UnloadNotify)
	if _, err := app.TUI.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var m tea.Model = uiapp.NewCalibration(context.Background(), app.TUI, app.Events)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m, cmd = m.Update(cmd())
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("notify-only quit must exit without asking")
	}

	leaveCalibration(app, m)
	if got := backend.cancelCount(); got != 1 {
		t.Fatalf("expected exactly one cancel notice, got %d", got)
	}
}

func TestIdleExitSendsNothing(t *testing.T) {
	t.Parallel()
	app, backend := focusApp(t, config.UnloadNotifyConfirm)
	leaveCalibration(app, nil)
	if got := backend.cancelCount(); got != 0 {
		t.Fatalf("idle exit must not notify, got %d", got)
	}
}
