package in

import (
	"context"
	"errors"
	"testing"

	calibrationdto "neurocal/internal/modules/calibration/dto"
	apperrors "neurocal/internal/platform/errors"
)

type stubUsecase struct {
	status   calibrationdto.StatusOutput
	answered []string
}

func (s *stubUsecase) Start(context.Context) (calibrationdto.StartOutput, error) {
	return calibrationdto.StartOutput{}, nil
}

func (s *stubUsecase) Respond(_ context.Context, in calibrationdto.RespondInput) error {
	s.answered = append(s.answered, in.Answer)
	return nil
}

func (s *stubUsecase) Reset(context.Context) error { return nil }

func (s *stubUsecase) Unload(context.Context) calibrationdto.UnloadOutput {
	return calibrationdto.UnloadOutput{}
}

func (s *stubUsecase) Status(context.Context) calibrationdto.StatusOutput { return s.status }

func (s *stubUsecase) Plan(context.Context) calibrationdto.PlanOutput {
	return calibrationdto.PlanOutput{}
}

func (s *stubUsecase) Runs(context.Context) ([]calibrationdto.RunOutput, error) { return nil, nil }

func TestRespondIndexPicksLabel(t *testing.T) {
	t.Parallel()
	uc := &stubUsecase{status: calibrationdto.StatusOutput{Running: true, Phase: "feedback-1", Kind: "response", Answers: []string{"stay", "faster"}}}
	h := NewTUIHandler(uc)
	if err := h.RespondIndex(context.Background(), 2); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(uc.answered) != 1 || uc.answered[0] != "faster" {
		t.Fatalf("unexpected answers %v", uc.answered)
	}
	if err := h.RespondIndex(context.Background(), 3); !errors.Is(err, apperrors.ErrUnknownAnswer) {
		t.Fatalf("expected ErrUnknownAnswer, got %v", err)
	}
}

func TestRespondIndexOutsideResponsePhase(t *testing.T) {
	t.Parallel()
	h := NewTUIHandler(&stubUsecase{status: calibrationdto.StatusOutput{Running: true, Kind: "task"}})
	if err := h.RespondIndex(context.Background(), 1); !errors.Is(err, apperrors.ErrNoResponsePhase) {
		t.Fatalf("expected ErrNoResponsePhase, got %v", err)
	}
}
