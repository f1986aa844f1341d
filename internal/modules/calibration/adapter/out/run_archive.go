package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"neurocal/internal/modules/calibration/domain"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	"neurocal/internal/platform/markdown"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type runMeta struct {
	SchemaVersion int    `yaml:"schema_version"`
	ID            string `yaml:"id"`
	Plan          string `yaml:"plan"`
	Mode          string `yaml:"mode"`
	StartedAt     string `yaml:"started_at"`
	FinishedAt    string `yaml:"finished_at"`
	Records       int    `yaml:"records"`
	Timestamps    int    `yaml:"timestamps"`
	Reported      bool   `yaml:"reported"`
	ReportError   string `yaml:"report_error,omitempty"`
}

// MarkdownRunArchive stores each finished run as a dated markdown note with
// the raw results in a fenced block.
type MarkdownRunArchive struct {
	dir string
}

func NewMarkdownRunArchive(dir string) calibrationout.RunArchive {
	return &MarkdownRunArchive{dir: dir}
}

func (a *MarkdownRunArchive) Save(_ context.Context, run domain.Run) (string, error) {
	date := run.StartedAt.UTC()
	dir := filepath.Join(a.dir, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.md", date.Format("150405"), run.Plan, shortID(run.ID)))

	meta := runMeta{
		SchemaVersion: domain.RunSchemaVersion,
		ID:            run.ID,
		Plan:          run.Plan,
		Mode:          string(run.Mode),
		StartedAt:     run.StartedAt.UTC().Format(timeLayout),
		FinishedAt:    run.FinishedAt.UTC().Format(timeLayout),
		Records:       len(run.Records),
		Timestamps:    len(run.Timestamps),
		Reported:      run.ReportErr == nil,
	}
	if run.ReportErr != nil {
		meta.ReportError = run.ReportErr.Error()
	}
	body := fmt.Sprintf("# Calibration run %s\n\n- Plan: %s\n- Duration: %s\n\n```json\n%s\n```\n",
		run.ID, run.Plan, run.FinishedAt.Sub(run.StartedAt).Round(time.Second), run.Results)
	rendered, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write run note: %w", err)
	}
	return path, nil
}

// List returns archived runs, newest first.
func (a *MarkdownRunArchive) List(_ context.Context) ([]domain.RunSummary, error) {
	runs := []domain.RunSummary{}
	err := filepath.WalkDir(a.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == a.dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read run note: %w", err)
		}
		meta := runMeta{}
		if _, err := markdown.SplitFrontmatter(string(raw), &meta); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if meta.ID == "" {
			return nil
		}
		started, _ := time.Parse(timeLayout, meta.StartedAt)
		finished, _ := time.Parse(timeLayout, meta.FinishedAt)
		runs = append(runs, domain.RunSummary{
			ID:          meta.ID,
			Plan:        meta.Plan,
			Mode:        domain.Mode(meta.Mode),
			StartedAt:   started,
			FinishedAt:  finished,
			Records:     meta.Records,
			Timestamps:  meta.Timestamps,
			Reported:    meta.Reported,
			ReportError: meta.ReportError,
			Path:        path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk run archive: %w", err)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
