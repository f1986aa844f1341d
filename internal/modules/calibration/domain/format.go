package domain

import "fmt"

// ClockText renders whole seconds as mm:ss.
func ClockText(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func CountdownText(seconds int) string {
	return fmt.Sprintf("Starting in %d...", seconds)
}

// TimerText is what a timed phase shows with remaining seconds left.
func TimerText(kind Kind, remaining int) string {
	switch kind {
	case KindCountdown:
		return CountdownText(remaining)
	case KindRest:
		return ""
	default:
		return ClockText(remaining)
	}
}

// Progress is the elapsed fraction of a phase of duration seconds.
func Progress(duration, remaining int) float64 {
	if duration <= 0 {
		return 0
	}
	f := float64(duration-remaining) / float64(duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
