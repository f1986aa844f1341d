package usecase

import (
	"context"
	"fmt"
	"strings"

	"neurocal/internal/modules/calibration/domain"
	calibrationdto "neurocal/internal/modules/calibration/dto"
	calibrationin "neurocal/internal/modules/calibration/port/in"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	"neurocal/internal/modules/calibration/service"
	apperrors "neurocal/internal/platform/errors"
)

type Interactor struct {
	svc     *service.Sequencer
	archive calibrationout.RunArchive
}

func NewInteractor(svc *service.Sequencer, archive calibrationout.RunArchive) calibrationin.Usecase {
	return &Interactor{svc: svc, archive: archive}
}

func (i *Interactor) Start(ctx context.Context) (calibrationdto.StartOutput, error) {
	runID, err := i.svc.Start(ctx)
	if err != nil {
		return calibrationdto.StartOutput{}, err
	}
	return calibrationdto.StartOutput{RunID: runID, Plan: i.svc.Plan().Name}, nil
}

func (i *Interactor) Respond(ctx context.Context, input calibrationdto.RespondInput) error {
	answer := strings.TrimSpace(input.Answer)
	if answer == "" {
		return fmt.Errorf("%w: answer is required", apperrors.ErrInvalidInput)
	}
	return i.svc.Respond(ctx, answer)
}

func (i *Interactor) Reset(ctx context.Context) error {
	i.svc.Reset(ctx)
	return nil
}

func (i *Interactor) Unload(ctx context.Context) calibrationdto.UnloadOutput {
	d := i.svc.Unload(ctx)
	return calibrationdto.UnloadOutput{Running: d.Running, Notified: d.Notified, Confirm: d.Confirm}
}

func (i *Interactor) Status(_ context.Context) calibrationdto.StatusOutput {
	plan := i.svc.Plan()
	snap := i.svc.Status()
	out := calibrationdto.StatusOutput{
		RunID:     snap.RunID,
		Plan:      plan.Name,
		State:     string(snap.State),
		Running:   snap.State.Running(),
		Index:     snap.Index,
		Total:     len(plan.Phases),
		Phase:     snap.Phase,
		Kind:      string(snap.Kind),
		Remaining: snap.Remaining,
		Records:   len(snap.Records),
		Results:   snap.Results,
	}
	if snap.ReportErr != nil {
		out.ReportError = snap.ReportErr.Error()
	}
	if snap.Index >= 0 && snap.Index < len(plan.Phases) && snap.State.Running() {
		phase := plan.Phases[snap.Index]
		out.Text = phase.Text
		out.Answers = append([]string(nil), phase.Answers...)
		if phase.Timed() {
			out.Timer = domain.TimerText(phase.Kind, snap.Remaining)
			out.Progress = domain.Progress(phase.Duration, snap.Remaining)
		}
	}
	return out
}

func (i *Interactor) Plan(_ context.Context) calibrationdto.PlanOutput {
	plan := i.svc.Plan()
	out := calibrationdto.PlanOutput{
		Name:         plan.Name,
		Mode:         string(plan.Mode),
		Unload:       string(plan.Unload),
		Instructions: plan.Instructions,
		Phases:       make([]calibrationdto.PhaseOutput, 0, len(plan.Phases)),
	}
	for _, p := range plan.Phases {
		out.Phases = append(out.Phases, calibrationdto.PhaseOutput{
			Name:     p.Name,
			Kind:     string(p.Kind),
			Duration: p.Duration,
			Text:     p.Text,
			Stimulus: p.Stimulus,
			Answers:  append([]string(nil), p.Answers...),
			Mark:     p.Mark,
		})
	}
	return out
}

func (i *Interactor) Runs(ctx context.Context) ([]calibrationdto.RunOutput, error) {
	if i.archive == nil {
		return nil, nil
	}
	runs, err := i.archive.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]calibrationdto.RunOutput, 0, len(runs))
	for _, r := range runs {
		out = append(out, calibrationdto.RunOutput{
			RunID:       r.ID,
			Plan:        r.Plan,
			Mode:        string(r.Mode),
			StartedAt:   r.StartedAt,
			FinishedAt:  r.FinishedAt,
			Records:     r.Records,
			Timestamps:  r.Timestamps,
			Reported:    r.Reported,
			ReportError: r.ReportError,
			Path:        r.Path,
		})
	}
	return out, nil
}
