package domain

import "math"

// Frame is everything a display needs to draw one render tick.
type Frame struct {
	Metric        Metric
	Current       float64
	Displayed     float64
	Level         float64
	Percent       int
	Brightness    float64
	PlaybackRate  float64
	BarWidth      float64
	GlowAlpha     float64
	GlowRadius    float64
	ShadowAlpha   float64
	FilamentAlpha float64
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Map turns the interpolated pair into display values.
func Map(metric Metric, p Pair, baseRate float64) Frame {
	displayed := p.Displayed()
	level := Clamp01(displayed)
	return Frame{
		Metric:        metric,
		Current:       p.Current,
		Displayed:     displayed,
		Level:         level,
		Percent:       int(math.Round(level * 100)),
		Brightness:    level * 100,
		PlaybackRate:  baseRate * (1 + displayed),
		BarWidth:      p.Current * 100,
		GlowAlpha:     0.1 + 0.9*level,
		GlowRadius:    80 * level,
		ShadowAlpha:   0.8 * level,
		FilamentAlpha: 0.3 + 0.7*level,
	}
}
