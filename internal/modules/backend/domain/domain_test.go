package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "neurocal/internal/platform/errors"
)

func TestSignalIsDeterministicAndBounded(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := NewSignal(7, start)
	b := NewSignal(7, start)
	other := NewSignal(8, start)
	differs := false
	for i := 0; i < 200; i++ {
		now := start.Add(time.Duration(i) * 250 * time.Millisecond)
		ra, rb := a.Sample(now), b.Sample(now)
		if ra != rb {
			t.Fatalf("same seed diverged at %d: %+v vs %+v", i, ra, rb)
		}
		if ra.Focus < 0 || ra.Focus > 1 || ra.Cogload < 0 || ra.Cogload > 1 {
			t.Fatalf("reading out of range %+v", ra)
		}
		if other.Sample(now) != ra {
			differs = true
		}
	}
	if !differs {
		t.Fatalf("different seeds must give different noise")
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	if a, err := ParseAction("stop"); err != nil || a != ActionStop {
		t.Fatalf("unexpected %v %v", a, err)
	}
	if _, err := ParseAction("superseded"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("clients must not send superseded, got %v", err)
	}
}

func TestSubmissionValues(t *testing.T) {
	t.Parallel()
	answer := "stay"
	values, err := RecordValues([]Record{{StartTime: 10, Answer: &answer}, {StartTime: 20}})
	if err != nil || len(values) != 2 || values[1].Text != nil || values[0].Key != "record_0" {
		t.Fatalf("unexpected record values %+v %v", values, err)
	}
	if _, err := RecordValues([]Record{{StartTime: math.NaN()}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid start_time to fail, got %v", err)
	}
	stamps, err := TimestampValues(map[string]float64{"focus_start": 2, "calibration_start": 1})
	if err != nil || stamps[0].Key != "calibration_start" || stamps[1].Position != 1 {
		t.Fatalf("timestamps must be ordered by key, got %+v %v", stamps, err)
	}
	if _, err := TimestampValues(nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected empty timestamps to fail, got %v", err)
	}
}
