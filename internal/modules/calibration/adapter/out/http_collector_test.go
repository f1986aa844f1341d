package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	calibrationout "neurocal/internal/modules/calibration/adapter/out"
	"neurocal/internal/modules/calibration/domain"
	calibrationport "neurocal/internal/modules/calibration/port/out"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/httpclient"
	"neurocal/internal/platform/id"
)

type captured struct {
	method string
	path   string
	run    string
	body   string
}

type recorder struct {
	mu       sync.Mutex
	requests []captured
	status   int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	raw, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, captured{method: req.Method, path: req.URL.Path, run: req.Header.Get(httpclient.RunHeader), body: string(raw)})
	status := r.status
	r.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (r *recorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.requests...)
}

func newCollector(t *testing.T, rec *recorder) calibrationport.Collector {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return calibrationout.NewHTTPCollector(httpclient.New(srv.URL, time.Second), zerolog.Nop())
}

func TestHTTPCollectorSpeaksBackendRoutes(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	collector := newCollector(t, rec)
	ctx := id.WithRun(context.Background(), "run-7")

	if err := collector.BeginCollection(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := collector.EndCollection(ctx, domain.ActionStop); err != nil {
		t.Fatalf("end: %v", err)
	}
	answer := "stay"
	if err := collector.SubmitRecords(ctx, []domain.CalibrationRecord{{StartTime: 1700000000, Answer: &answer}, {StartTime: 1700000040}}); err != nil {
		t.Fatalf("records: %v", err)
	}
	if err := collector.SubmitTimestamps(ctx, domain.TimestampSet{"focus_start": 1.5}); err != nil {
		t.Fatalf("timestamps: %v", err)
	}

	reqs := rec.all()
	if len(reqs) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(reqs))
	}
	if reqs[0].method != http.MethodGet || reqs[0].path != calibrationout.CollectionEndpoint {
		t.Fatalf("unexpected begin request %+v", reqs[0])
	}
	if reqs[1].method != http.MethodPost || reqs[1].body != `{"action":"stop"}` {
		t.Fatalf("unexpected end request %+v", reqs[1])
	}
	if reqs[2].path != calibrationout.RecordsEndpoint || reqs[2].body != `[{"start_time":1700000000,"answer":"stay"},{"start_time":1700000040,"answer":null}]` {
		t.Fatalf("unexpected records request %+v", reqs[2])
	}
	stamps := map[string]float64{}
	if err := json.Unmarshal([]byte(reqs[3].body), &stamps); err != nil || stamps["focus_start"] != 1.5 {
		t.Fatalf("unexpected timestamps body %q", reqs[3].body)
	}
	for _, r := range reqs {
		if r.run != "run-7" {
			t.Fatalf("request %s %s missing run header", r.method, r.path)
		}
	}
}

func TestHTTPCollectorSubmitsEmptyRecordsAsArray(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	collector := newCollector(t, rec)
	if err := collector.SubmitRecords(context.Background(), nil); err != nil {
		t.Fatalf("records: %v", err)
	}
	if body := rec.all()[0].body; body != "[]" {
		t.Fatalf("expected [], got %q", body)
	}
}

func TestHTTPCollectorWrapsServerErrors(t *testing.T) {
	t.Parallel()
	rec := &recorder{status: http.StatusServiceUnavailable}
	collector := newCollector(t, rec)
	err := collector.BeginCollection(context.Background())
	if !errors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestHTTPCollectorCancelDoesNotBlock(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	arrived := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		arrived <- string(raw)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	collector := calibrationout.NewHTTPCollector(httpclient.New(srv.URL, time.Second), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	collector.CancelCollection(ctx)
	cancel()
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("cancel must return immediately")
	}
	select {
	case body := <-arrived:
		if body != `{"action":"cancel"}` {
			t.Fatalf("unexpected cancel body %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancel request never arrived")
	}
}
