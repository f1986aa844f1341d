package in

import (
	"context"

	smootherdto "neurocal/internal/modules/smoother/dto"
	smootherin "neurocal/internal/modules/smoother/port/in"
)

type TUIHandler struct {
	usecase smootherin.Usecase
}

func NewTUIHandler(usecase smootherin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

func (h TUIHandler) Frame(ctx context.Context) smootherdto.FrameOutput {
	return h.usecase.Frame(ctx)
}

func (h TUIHandler) Settings(ctx context.Context) smootherdto.SettingsOutput {
	return h.usecase.Settings(ctx)
}
