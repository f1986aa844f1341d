package dto

type FrameOutput struct {
	Metric        string
	Current       float64
	Displayed     float64
	Percent       int
	Brightness    float64
	PlaybackRate  float64
	BarWidth      float64
	GlowAlpha     float64
	GlowRadius    float64
	ShadowAlpha   float64
	FilamentAlpha float64
}

type SettingsOutput struct {
	Metric         string
	PollInterval   string
	RenderInterval string
	Steps          int
	BaseRate       float64
}
