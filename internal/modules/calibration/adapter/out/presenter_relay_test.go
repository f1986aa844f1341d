package out

import (
	"testing"

	"github.com/rs/zerolog"

	calibrationdto "neurocal/internal/modules/calibration/dto"
)

func TestPresenterRelayKeepsCallOrder(t *testing.T) {
	t.Parallel()
	r := NewPresenterRelay(zerolog.Nop())
	r.ShowPhase("countdown")
	r.SetTimerText("Starting in 3...")
	r.SetProgress(0.5)
	r.MoveTarget(0.2, 0.8)
	r.PlayStimulus("/static/videos/clip_1.mp4")
	r.StopStimulus()
	r.ShowResults(`[]`)
	r.Alert("boom")

	want := []string{
		calibrationdto.EventPhase, calibrationdto.EventTimer, calibrationdto.EventProgress, calibrationdto.EventTarget,
		calibrationdto.EventStimulus, calibrationdto.EventStopStimulus, calibrationdto.EventResults, calibrationdto.EventAlert,
	}
	for i, kind := range want {
		e := <-r.Events()
		if e.Kind != kind {
			t.Fatalf("event %d: expected %s, got %+v", i, kind, e)
		}
		if kind == calibrationdto.EventTarget && (e.X != 0.2 || e.Y != 0.8) {
			t.Fatalf("unexpected target %+v", e)
		}
	}
}

func TestPresenterRelayNeverBlocks(t *testing.T) {
	t.Parallel()
	r := NewPresenterRelay(zerolog.Nop())
	for i := 0; i < relayBuffer+10; i++ {
		r.SetProgress(float64(i))
	}
	if got := len(r.Events()); got != relayBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", relayBuffer, got)
	}
	if first := <-r.Events(); first.Progress != 0 {
		t.Fatalf("oldest event must be kept, got %+v", first)
	}
}
