package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time and timers so sequencing can run on simulated time in tests.
type Clock = clockwork.Clock

func System() Clock {
	return clockwork.NewRealClock()
}

// UnixSeconds is the float epoch form the backend stores timestamps in.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
