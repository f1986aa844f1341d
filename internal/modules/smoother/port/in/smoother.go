package in

import (
	"context"

	"neurocal/internal/modules/smoother/dto"
)

type Usecase interface {
	// Run polls and renders until ctx is cancelled.
	Run(ctx context.Context) error
	Frame(ctx context.Context) dto.FrameOutput
	Settings(ctx context.Context) dto.SettingsOutput
}
