package usecase

import (
	"context"
	"strconv"

	"neurocal/internal/modules/backend/domain"
	backenddto "neurocal/internal/modules/backend/dto"
	backendin "neurocal/internal/modules/backend/port/in"
	"neurocal/internal/modules/backend/service"
)

type Interactor struct {
	svc *service.BackendService
}

func NewInteractor(svc *service.BackendService) backendin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Data(_ context.Context) backenddto.DataOutput {
	r := i.svc.Sample()
	return backenddto.DataOutput{Focus: formatFloat(r.Focus), Cogload: formatFloat(r.Cogload)}
}

func (i *Interactor) BeginCollection(ctx context.Context, runID string) (backenddto.CollectionOutput, error) {
	w, err := i.svc.Begin(ctx, runID)
	if err != nil {
		return backenddto.CollectionOutput{}, err
	}
	return backenddto.CollectionOutput{Status: "started", RunID: w.RunID, WindowID: w.ID}, nil
}

func (i *Interactor) EndCollection(ctx context.Context, input backenddto.EndCollectionInput) (backenddto.CollectionOutput, error) {
	w, err := i.svc.End(ctx, input.RunID, input.Action)
	if err != nil {
		return backenddto.CollectionOutput{}, err
	}
	status := "stopped"
	if w.Action == domain.ActionCancel {
		status = "cancelled"
	}
	return backenddto.CollectionOutput{Status: status, RunID: w.RunID, WindowID: w.ID, Action: string(w.Action)}, nil
}

func (i *Interactor) SubmitRecords(ctx context.Context, input backenddto.SubmitRecordsInput) (backenddto.SubmitOutput, error) {
	records := make([]domain.Record, 0, len(input.Records))
	for _, r := range input.Records {
		records = append(records, domain.Record{StartTime: r.StartTime, Answer: r.Answer})
	}
	sub, err := i.svc.SubmitRecords(ctx, input.RunID, records)
	if err != nil {
		return backenddto.SubmitOutput{}, err
	}
	return submitOutput(sub), nil
}

func (i *Interactor) SubmitTimestamps(ctx context.Context, input backenddto.SubmitTimestampsInput) (backenddto.SubmitOutput, error) {
	sub, err := i.svc.SubmitTimestamps(ctx, input.RunID, input.Timestamps)
	if err != nil {
		return backenddto.SubmitOutput{}, err
	}
	return submitOutput(sub), nil
}

func (i *Interactor) Submissions(ctx context.Context, limit int) ([]backenddto.SubmissionOutput, error) {
	subs, err := i.svc.Submissions(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]backenddto.SubmissionOutput, 0, len(subs))
	for _, s := range subs {
		out = append(out, submissionOutput(s, nil))
	}
	return out, nil
}

func (i *Interactor) Submission(ctx context.Context, id string) (backenddto.SubmissionOutput, error) {
	sub, values, err := i.svc.Submission(ctx, id)
	if err != nil {
		return backenddto.SubmissionOutput{}, err
	}
	return submissionOutput(sub, values), nil
}

func submitOutput(sub domain.Submission) backenddto.SubmitOutput {
	return backenddto.SubmitOutput{Status: "ok", ID: sub.ID, Kind: string(sub.Kind), Count: sub.Count}
}

func submissionOutput(sub domain.Submission, values []domain.Value) backenddto.SubmissionOutput {
	out := backenddto.SubmissionOutput{
		ID:         sub.ID,
		RunID:      sub.RunID,
		Kind:       string(sub.Kind),
		Count:      sub.Count,
		ReceivedAt: sub.ReceivedAt,
		Payload:    sub.Payload,
	}
	for _, v := range values {
		out.Values = append(out.Values, backenddto.ValueOutput{Key: v.Key, Number: v.Number, Text: v.Text})
	}
	return out
}

// formatFloat renders a metric the way the classifier service prints it.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
