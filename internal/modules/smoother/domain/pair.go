package domain

import (
	"fmt"
	"time"

	apperrors "neurocal/internal/platform/errors"
)

type Metric string

const (
	MetricFocus   Metric = "focus"
	MetricCogload Metric = "cogload"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricFocus, MetricCogload:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: unknown metric %q", apperrors.ErrInvalidInput, s)
	}
}

// Reading is one sample of every metric the backend publishes.
type Reading struct {
	Focus   float64
	Cogload float64
}

func (r Reading) Value(m Metric) float64 {
	if m == MetricFocus {
		return r.Focus
	}
	return r.Cogload
}

// Pair holds the last two samples and how far the display has moved from the
// older toward the newer one.
type Pair struct {
	Previous float64
	Current  float64
	Step     int
	Steps    int
}

// StepsPerInterval is how many render ticks fit in one poll interval, at least 1.
func StepsPerInterval(poll, render time.Duration) int {
	if render <= 0 {
		return 1
	}
	n := int(poll / render)
	if n < 1 {
		return 1
	}
	return n
}

func NewPair(steps int) Pair {
	if steps < 1 {
		steps = 1
	}
	return Pair{Steps: steps}
}

func (p Pair) Displayed() float64 {
	if p.Steps <= 0 {
		return p.Current
	}
	return p.Previous + (p.Current-p.Previous)*float64(p.Step)/float64(p.Steps)
}

// Shift accepts a new sample and restarts the interpolation from the old current value.
func (p Pair) Shift(sample float64) Pair {
	return Pair{Previous: p.Current, Current: sample, Steps: p.Steps}
}

// Advance moves one render step closer to Current.
func (p Pair) Advance() Pair {
	if p.Step < p.Steps {
		p.Step++
	}
	return p
}
