package id

import (
	"context"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

type runKey struct{}

// WithRun tags ctx with the calibration run it belongs to.
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runKey{}, runID)
}

func RunFrom(ctx context.Context) string {
	v, _ := ctx.Value(runKey{}).(string)
	return v
}
