package usecase

import (
	"context"

	smootherdto "neurocal/internal/modules/smoother/dto"
	smootherin "neurocal/internal/modules/smoother/port/in"
	"neurocal/internal/modules/smoother/service"
)

type Interactor struct {
	svc *service.Smoother
}

func NewInteractor(svc *service.Smoother) smootherin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Run(ctx context.Context) error {
	return i.svc.Run(ctx)
}

func (i *Interactor) Frame(_ context.Context) smootherdto.FrameOutput {
	f := i.svc.LastFrame()
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

func (i *Interactor) Settings(_ context.Context) smootherdto.SettingsOutput {
	s := i.svc.Settings()
	return smootherdto.SettingsOutput{
		Metric:         string(s.Metric),
		PollInterval:   s.PollInterval.String(),
		RenderInterval: s.RenderInterval.String(),
		Steps:          i.svc.Steps(),
		BaseRate:       s.BaseRate,
	}
}
