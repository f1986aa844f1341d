package out

import (
	"context"

	"neurocal/internal/modules/smoother/domain"
)

type MetricSource interface {
	Fetch(ctx context.Context) (domain.Reading, error)
}

// Display receives one frame per render tick. Render must not block for long.
type Display interface {
	Render(frame domain.Frame)
}
