package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"neurocal/internal/modules/calibration/domain"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/markdown"
)

// MarkdownPlanSource reads a plan from a markdown file whose YAML frontmatter
// holds the plan and whose body holds the participant instructions. An empty
// path yields the fallback plan.
type MarkdownPlanSource struct {
	path     string
	fallback domain.Plan
}

func NewMarkdownPlanSource(path string, fallback domain.Plan) calibrationout.PlanSource {
	return &MarkdownPlanSource{path: path, fallback: fallback}
}

func (s *MarkdownPlanSource) Load(_ context.Context) (domain.Plan, error) {
	if s.path == "" {
		return s.fallback, s.fallback.Validate()
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Plan{}, fmt.Errorf("%w: plan file %s", apperrors.ErrNotFound, s.path)
		}
		return domain.Plan{}, fmt.Errorf("read plan file: %w", err)
	}
	plan := domain.Plan{}
	body, err := markdown.SplitFrontmatter(string(raw), &plan)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidPlan, s.path, err)
	}
	plan.Instructions = strings.TrimSpace(body)
	if plan.Instructions == "" {
		plan.Instructions = s.fallback.Instructions
	}
	if err := plan.Validate(); err != nil {
		return domain.Plan{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return plan, nil
}

// RenderPlan writes plan in the format MarkdownPlanSource reads.
func RenderPlan(plan domain.Plan) (string, error) {
	return markdown.RenderFrontmatter(plan, plan.Instructions)
}
