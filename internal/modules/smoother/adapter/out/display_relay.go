package out

import (
	"neurocal/internal/modules/smoother/domain"
	smootherdto "neurocal/internal/modules/smoother/dto"
	smootherout "neurocal/internal/modules/smoother/port/out"
)

// FrameRelay hands rendered frames to a UI through a one-slot channel. A UI
// that falls behind sees the newest frame, never a backlog.
type FrameRelay struct {
	frames chan smootherdto.FrameOutput
}

var _ smootherout.Display = (*FrameRelay)(nil)

func NewFrameRelay() *FrameRelay {
	return &FrameRelay{frames: make(chan smootherdto.FrameOutput, 1)}
}

func (r *FrameRelay) Frames() <-chan smootherdto.FrameOutput {
	return r.frames
}

func (r *FrameRelay) Render(f domain.Frame) {
	out := FrameOutput(f)
	for {
		select {
		case r.frames <- out:
			return
		default:
		}
		select {
		case <-r.frames:
		default:
		}
	}
}

func FrameOutput(f domain.Frame) smootherdto.FrameOutput {
	return smootherdto.FrameOutput{
		Metric:        string(f.Metric),
		Current:       f.Current,
		Displayed:     f.Displayed,
		Percent:       f.Percent,
		Brightness:    f.Brightness,
		PlaybackRate:  f.PlaybackRate,
		BarWidth:      f.BarWidth,
		GlowAlpha:     f.GlowAlpha,
		GlowRadius:    f.GlowRadius,
		ShadowAlpha:   f.ShadowAlpha,
		FilamentAlpha: f.FilamentAlpha,
	}
}
