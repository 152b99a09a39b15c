package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/jobs"
	"github.com/dvloznov/fincopilot/internal/jobs/inmemory"
)

const originAPI = "api"

// MessagesHandler queues chat messages for asynchronous ingestion.
type MessagesHandler struct {
	publisher jobs.Publisher
	isTrigger func(text string) bool
	log       zerolog.Logger
}

// NewMessagesHandler creates a new messages handler. isTrigger decides
// whether a message is meant as a transaction at all.
func NewMessagesHandler(publisher jobs.Publisher, isTrigger func(string) bool, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{publisher: publisher, isTrigger: isTrigger, log: log}
}

// PostMessage handles POST /messages
func (h *MessagesHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.isTrigger(req.Text) {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Message does not start with an income or expense keyword")
		return
	}

	job := &jobs.IngestTextJob{Text: req.Text, Origin: originAPI}
	if err := h.publisher.PublishIngestText(r.Context(), job); err != nil {
		if errors.Is(err, inmemory.ErrQueueClosed) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to enqueue message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue message")
		return
	}

	reqLog := middleware.RequestLogger(r, h.log)

	reqLog.Info().Str("job_id", job.JobID).Msg("Message queued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(jobs.JobStatusPending),
	})
}
