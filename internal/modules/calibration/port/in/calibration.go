package in

import (
	"context"

	"neurocal/internal/modules/calibration/dto"
)

type Usecase interface {
	Start(ctx context.Context) (dto.StartOutput, error)
	Respond(ctx context.Context, input dto.RespondInput) error
	Reset(ctx context.Context) error
	Unload(ctx context.Context) dto.UnloadOutput
	Status(ctx context.Context) dto.StatusOutput
	Plan(ctx context.Context) dto.PlanOutput
	Runs(ctx context.Context) ([]dto.RunOutput, error)
}
