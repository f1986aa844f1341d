package out

import (
	"context"

	"neurocal/internal/modules/backend/domain"
)

// Journal persists collection windows and submissions. Writes made through
// a context carrying a transaction join that transaction.
type Journal interface {
	SaveWindow(ctx context.Context, window domain.Window) error
	SaveSubmission(ctx context.Context, submission domain.Submission) error
	SaveValues(ctx context.Context, submissionID string, values []domain.Value) error
	ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error)
	GetSubmission(ctx context.Context, id string) (domain.Submission, error)
	ListValues(ctx context.Context, submissionID string) ([]domain.Value, error)
}
