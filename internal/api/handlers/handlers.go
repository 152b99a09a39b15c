// Package handlers implements the HTTP endpoints over the ledger, the
// parser pipelines, the reports and the budget service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/jobs"
	"github.com/dvloznov/fincopilot/internal/parser"
	"github.com/dvloznov/fincopilot/internal/pipeline"
	"github.com/dvloznov/fincopilot/internal/stats"
)

const maxBodyBytes = 1 << 20

type textRequest struct {
	Text string `json:"text"`
}

// decodeJSON reads a bounded JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// periodFromQuery reads start_date/end_date, or a named window in
// "period" falling back to defaultWindow. It returns the window name
// used, "" for a custom range.
func periodFromQuery(q url.Values, today civil.Date, defaultWindow string) (domain.Period, string, error) {
	if q.Get("start_date") != "" || q.Get("end_date") != "" {
		p, err := stats.ParsePeriod(q.Get("start_date"), q.Get("end_date"))
		return p, "", err
	}
	window := q.Get("period")
	if window == "" {
		window = defaultWindow
	}
	p, err := stats.PeriodFor(window, today)
	return p, window, err
}

func intParam(q url.Values, key string, def int) int {
	if s := q.Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// writePipelineError maps a failed parse or store call onto a status code.
// Unrecognized statements and unusable model output are the caller's
// problem (422); an unreachable model is 503.
func writePipelineError(w http.ResponseWriter, log zerolog.Logger, err error) {
	kind := string(parser.KindOf(err))
	switch {
	case errors.Is(err, parser.ErrAmbiguousInput),
		errors.Is(err, parser.ErrMalformedModelOutput),
		errors.Is(err, pipeline.ErrInvalidRecord):
		if kind == "" {
			kind = "invalid_record"
		}
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"kind":  kind,
		})
	case errors.Is(err, parser.ErrInterpreterUnavailable):
		log.Warn().Err(err).Msg("Interpreter unavailable")
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Language model unavailable",
			"kind":  kind,
		})
	default:
		log.Error().Err(err).Msg("Pipeline failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process statement")
	}
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Origin: query.Get("origin"),
		Status: jobs.JobStatus(strings.ToLower(query.Get("status"))),
		Limit:  intParam(query, "limit", 0),
		Offset: intParam(query, "offset", 0),
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
