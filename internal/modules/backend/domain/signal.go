package domain

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	focusPeriod   = 40 * time.Second
	cogloadPeriod = 30 * time.Second
	noiseStep     = 500 * time.Millisecond
)

type Reading struct {
	Focus   float64
	Cogload float64
}

// Signal stands in for the EEG classifier: two slow sine waves with seeded
// noise that changes every half second. The same seed and elapsed time give
// the same reading.
type Signal struct {
	seed  uint64
	start time.Time
}

func NewSignal(seed uint64, start time.Time) Signal {
	return Signal{seed: seed, start: start}
}

func (s Signal) Sample(now time.Time) Reading {
	elapsed := now.Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	rng := rand.New(rand.NewPCG(s.seed, uint64(elapsed/noiseStep)))
	secs := elapsed.Seconds()
	focus := 0.5 + 0.35*math.Sin(2*math.Pi*secs/focusPeriod.Seconds()) + 0.1*(rng.Float64()-0.5)
	cogload := 0.5 + 0.35*math.Cos(2*math.Pi*secs/cogloadPeriod.Seconds()) + 0.1*(rng.Float64()-0.5)
	return Reading{Focus: clamp(focus), Cogload: clamp(cogload)}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
