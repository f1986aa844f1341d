package in

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	backenddto "neurocal/internal/modules/backend/dto"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/httpclient"
)

type fakeUsecase struct {
	beginRun  string
	endInput  backenddto.EndCollectionInput
	endErr    error
	records   backenddto.SubmitRecordsInput
	stamps    backenddto.SubmitTimestampsInput
	submitErr error
	limit     int
}

func (f *fakeUsecase) Data(context.Context) backenddto.DataOutput {
	return backenddto.DataOutput{Focus: "0.61", Cogload: "0.25"}
}

func (f *fakeUsecase) BeginCollection(_ context.Context, runID string) (backenddto.CollectionOutput, error) {
	f.beginRun = runID
	return backenddto.CollectionOutput{Status: "started", RunID: runID, WindowID: "w1"}, nil
}

func (f *fakeUsecase) EndCollection(_ context.Context, in backenddto.EndCollectionInput) (backenddto.CollectionOutput, error) {
	f.endInput = in
	if f.endErr != nil {
		return backenddto.CollectionOutput{}, f.endErr
	}
	return backenddto.CollectionOutput{Status: "stopped", WindowID: "w1", Action: in.Action}, nil
}

func (f *fakeUsecase) SubmitRecords(_ context.Context, in backenddto.SubmitRecordsInput) (backenddto.SubmitOutput, error) {
	f.records = in
	if f.submitErr != nil {
		return backenddto.SubmitOutput{}, f.submitErr
	}
	return backenddto.SubmitOutput{Status: "ok", ID: "s1", Kind: "records", Count: len(in.Records)}, nil
}

func (f *fakeUsecase) SubmitTimestamps(_ context.Context, in backenddto.SubmitTimestampsInput) (backenddto.SubmitOutput, error) {
	f.stamps = in
	return backenddto.SubmitOutput{Status: "ok", ID: "s2", Kind: "timestamps", Count: len(in.Timestamps)}, nil
}

func (f *fakeUsecase) Submissions(_ context.Context, limit int) ([]backenddto.SubmissionOutput, error) {
	f.limit = limit
	return []backenddto.SubmissionOutput{{ID: "s1", Kind: "records"}}, nil
}

func (f *fakeUsecase) Submission(_ context.Context, id string) (backenddto.SubmissionOutput, error) {
	if id != "s1" {
		return backenddto.SubmissionOutput{}, apperrors.ErrNotFound
	}
	return backenddto.SubmissionOutput{ID: "s1", Kind: "records"}, nil
}

func serve(t *testing.T, h http.Handler, method, target, body, run string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if run != "" {
		req.Header.Set(httpclient.RunHeader, run)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDataPublishesStrings(t *testing.T) {
	t.Parallel()
	h := NewHTTPHandler(&fakeUsecase{}, "", zerolog.Nop()).Routes()
	rec := serve(t, h, http.MethodGet, "/data", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["focus"] != "0.61" || out["cogload"] != "0.25" {
		t.Fatalf("unexpected body %v", out)
	}
}

func TestCollectionRoutesCarryRunHeader(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := NewHTTPHandler(uc, "", zerolog.Nop()).Routes()

	if rec := serve(t, h, http.MethodGet, "/start_focus_callibration", "", "run-9"); rec.Code != http.StatusOK {
		t.Fatalf("begin status %d", rec.Code)
	}
	if uc.beginRun != "run-9" {
		t.Fatalf("expected run-9, got %q", uc.beginRun)
	}
	if rec := serve(t, h, http.MethodPost, "/start_focus_callibration", `{"action":"stop"}`, "run-9"); rec.Code != http.StatusOK {
		t.Fatalf("end status %d", rec.Code)
	}
	if uc.endInput.Action != "stop" || uc.endInput.RunID != "run-9" {
		t.Fatalf("unexpected end input %+v", uc.endInput)
	}
}

func TestEndCollectionErrorStatuses(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"bad action", `{"action":"pause"}`, apperrors.ErrInvalidInput, http.StatusBadRequest},
		{"no window", `{"action":"stop"}`, apperrors.ErrNoCollection, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewHTTPHandler(&fakeUsecase{endErr: tc.err}, "", zerolog.Nop()).Routes()
			if rec := serve(t, h, http.MethodPost, "/start_focus_callibration", tc.body, ""); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestSubmitRoutesDecodePayloads(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := NewHTTPHandler(uc, "", zerolog.Nop()).Routes()

	rec := serve(t, h, http.MethodPost, "/cogload_calibration", `[{"start_time":1700000000,"answer":"Yes"},{"start_time":1700000010,"answer":null}]`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("records status %d: %s", rec.Code, rec.Body.String())
	}
	if len(uc.records.Records) != 2 || uc.records.Records[1].Answer != nil || *uc.records.Records[0].Answer != "Yes" {
		t.Fatalf("unexpected records %+v", uc.records)
	}

	rec = serve(t, h, http.MethodPost, "/focus_calibration", `{"calibration_start":1700000000.5,"video_a_start":1700000003.25}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("timestamps status %d", rec.Code)
	}
	if uc.stamps.Timestamps["video_a_start"] != 1700000003.25 {
		t.Fatalf("unexpected stamps %+v", uc.stamps)
	}
}

func TestSubmissionRoutes(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := NewHTTPHandler(uc, "", zerolog.Nop()).Routes()

	if rec := serve(t, h, http.MethodGet, "/submissions?limit=5", "", ""); rec.Code != http.StatusOK || uc.limit != 5 {
		t.Fatalf("list status %d limit %d", rec.Code, uc.limit)
	}
	if rec := serve(t, h, http.MethodGet, "/submissions?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
	if rec := serve(t, h, http.MethodGet, "/submissions/s1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	if rec := serve(t, h, http.MethodGet, "/submissions/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStaticVideosAndMetrics(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip_1.mp4"), []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	h := NewHTTPHandler(&fakeUsecase{}, dir, zerolog.Nop()).Routes()
	rec := serve(t, h, http.MethodGet, "/static/videos/clip_1.mp4", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "clip" {
		t.Fatalf("clip status %d body %q", rec.Code, rec.Body.String())
	}
	if rec := serve(t, h, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "neurocal_backend_requests_total") {
		t.Fatalf("metrics status %d", rec.Code)
	}
}
