package out_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	calibrationout "neurocal/internal/modules/calibration/adapter/out"
	"neurocal/internal/modules/calibration/domain"
)

func TestRunArchiveSavesAndListsNewestFirst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	archive := calibrationout.NewMarkdownRunArchive(dir)
	answer := "faster"
	first := domain.Run{
		ID:         "11111111-aaaa",
		Plan:       "cogload",
		Mode:       domain.ModeRecords,
		StartedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 2, 9, 2, 0, 0, time.UTC),
		Records:    []domain.CalibrationRecord{{StartTime: 1, Answer: &answer}},
		Results:    `[{"start_time": 1, "answer": "faster"}]`,
	}
	second := domain.Run{
		ID:         "22222222-bbbb",
		Plan:       "focus",
		Mode:       domain.ModeTimestamps,
		StartedAt:  time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 3, 9, 1, 23, 0, time.UTC),
		Timestamps: domain.TimestampSet{"focus_start": 1, "focus_end": 2},
		Results:    `{}`,
		ReportErr:  fmt.Errorf("network error: status 500"),
	}

	path, err := archive.Save(context.Background(), first)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	if !strings.HasSuffix(path, "2026/03/02/090000-cogload-11111111.md") {
		t.Fatalf("unexpected path %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if !strings.Contains(string(raw), "```json\n[{\"start_time\": 1") {
		t.Fatalf("note must carry raw results:\n%s", raw)
	}
	if _, err := archive.Save(context.Background(), second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	runs, err := archive.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[0].Reported || runs[0].ReportError == "" || runs[0].Timestamps != 2 {
		t.Fatalf("unexpected failed run summary %+v", runs[0])
	}
	if !runs[1].Reported || runs[1].Records != 1 || !runs[1].StartedAt.Equal(first.StartedAt) {
		t.Fatalf("unexpected reported run summary %+v", runs[1])
	}
}

func TestRunArchiveListsNothingBeforeFirstRun(t *testing.T) {
	t.Parallel()
	runs, err := calibrationout.NewMarkdownRunArchive(t.TempDir() + "/none").List(context.Background())
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty archive, got %v %v", runs, err)
	}
}
