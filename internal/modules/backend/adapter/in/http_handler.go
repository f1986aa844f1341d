package in

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	backenddto "neurocal/internal/modules/backend/dto"
	backendin "neurocal/internal/modules/backend/port/in"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/httpclient"
	"neurocal/internal/platform/metrics"
)

const maxBodyBytes = 1 << 20

type HTTPHandler struct {
	usecase   backendin.Usecase
	videosDir string
	logger    zerolog.Logger
}

func NewHTTPHandler(usecase backendin.Usecase, videosDir string, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		usecase:   usecase,
		videosDir: videosDir,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// Routes mounts the classifier-facing API. The collection route keeps the
// historical misspelling because deployed clients post to it.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/data", h.data)
	r.Get("/start_focus_callibration", h.beginCollection)
	r.Post("/start_focus_callibration", h.endCollection)
	r.Post("/cogload_calibration", h.submitRecords)
	r.Post("/focus_calibration", h.submitTimestamps)
	r.Get("/submissions", h.listSubmissions)
	r.Get("/submissions/{id}", h.getSubmission)
	r.Handle("/metrics", promhttp.Handler())
	if h.videosDir != "" {
		r.Handle("/static/videos/*", http.StripPrefix("/static/videos/", http.FileServer(http.Dir(h.videosDir))))
	}
	return r
}

func (h *HTTPHandler) data(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.usecase.Data(r.Context()))
}

func (h *HTTPHandler) beginCollection(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.BeginCollection(r.Context(), runID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) endCollection(w http.ResponseWriter, r *http.Request) {
	var in backenddto.EndCollectionInput
	if !h.decode(w, r, &in) {
		return
	}
	in.RunID = runID(r)
	out, err := h.usecase.EndCollection(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) submitRecords(w http.ResponseWriter, r *http.Request) {
	var records []backenddto.RecordInput
	if !h.decode(w, r, &records) {
		return
	}
	out, err := h.usecase.SubmitRecords(r.Context(), backenddto.SubmitRecordsInput{RunID: runID(r), Records: records})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) submitTimestamps(w http.ResponseWriter, r *http.Request) {
	var stamps map[string]float64
	if !h.decode(w, r, &stamps) {
		return
	}
	out, err := h.usecase.SubmitTimestamps(r.Context(), backenddto.SubmitTimestampsInput{RunID: runID(r), Timestamps: stamps})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}
	out, err := h.usecase.Submissions(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Submission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNoCollection):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ServerRequests.WithLabelValues(route, strconv.Itoa(status/100)+"xx").Inc()
	})
}

func runID(r *http.Request) string {
	return r.Header.Get(httpclient.RunHeader)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
