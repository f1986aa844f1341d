package in

import (
	"context"

	"neurocal/internal/modules/backend/dto"
)

type Usecase interface {
	Data(ctx context.Context) dto.DataOutput
	BeginCollection(ctx context.Context, runID string) (dto.CollectionOutput, error)
	EndCollection(ctx context.Context, input dto.EndCollectionInput) (dto.CollectionOutput, error)
	SubmitRecords(ctx context.Context, input dto.SubmitRecordsInput) (dto.SubmitOutput, error)
	SubmitTimestamps(ctx context.Context, input dto.SubmitTimestampsInput) (dto.SubmitOutput, error)
	Submissions(ctx context.Context, limit int) ([]dto.SubmissionOutput, error)
	Submission(ctx context.Context, id string) (dto.SubmissionOutput, error)
}
