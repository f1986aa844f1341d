package in

import (
	"context"
	"fmt"

	calibrationdto "neurocal/internal/modules/calibration/dto"
	calibrationin "neurocal/internal/modules/calibration/port/in"
	apperrors "neurocal/internal/platform/errors"
)

// TUIHandler is what the terminal UI and CLI drive a calibration through.
type TUIHandler struct {
	usecase calibrationin.Usecase
}

func NewTUIHandler(usecase calibrationin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Start(ctx context.Context) (calibrationdto.StartOutput, error) {
	return h.usecase.Start(ctx)
}

func (h TUIHandler) Respond(ctx context.Context, answer string) error {
	return h.usecase.Respond(ctx, calibrationdto.RespondInput{Answer: answer})
}

// RespondIndex answers with the n-th (1-based) label of the active response phase.
func (h TUIHandler) RespondIndex(ctx context.Context, n int) error {
	status := h.usecase.Status(ctx)
	if !status.Running || len(status.Answers) == 0 {
		return apperrors.ErrNoResponsePhase
	}
	if n < 1 || n > len(status.Answers) {
		return fmt.Errorf("%w: no answer %d in phase %q", apperrors.ErrUnknownAnswer, n, status.Phase)
	}
	return h.Respond(ctx, status.Answers[n-1])
}

func (h TUIHandler) Reset(ctx context.Context) error {
	return h.usecase.Reset(ctx)
}

func (h TUIHandler) Unload(ctx context.Context) calibrationdto.UnloadOutput {
	return h.usecase.Unload(ctx)
}

func (h TUIHandler) Status(ctx context.Context) calibrationdto.StatusOutput {
	return h.usecase.Status(ctx)
}

func (h TUIHandler) Plan(ctx context.Context) calibrationdto.PlanOutput {
	return h.usecase.Plan(ctx)
}

func (h TUIHandler) Runs(ctx context.Context) ([]calibrationdto.RunOutput, error) {
	return h.usecase.Runs(ctx)
}
