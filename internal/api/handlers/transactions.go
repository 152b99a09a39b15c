package handlers

import (
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/jobs"
	"github.com/dvloznov/fincopilot/internal/ledger"
	"github.com/dvloznov/fincopilot/internal/search"
	"github.com/dvloznov/fincopilot/internal/stats"
	"github.com/dvloznov/fincopilot/internal/store"
)

const defaultSearchLimit = 10

// TransactionsHandler handles parsing, listing and editing records.
type TransactionsHandler struct {
	preview jobs.Runner
	ingest  jobs.Runner
	ledger  *ledger.Ledger
	today   func() civil.Date
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. preview must
// not persist; ingest must.
func NewTransactionsHandler(preview, ingest jobs.Runner, led *ledger.Ledger, today func() civil.Date, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		preview: preview,
		ingest:  ingest,
		ledger:  led,
		today:   today,
		log:     log,
	}
}

type parseResponse struct {
	Record domain.TransactionRecord `json:"record"`
	Tier   string                   `json:"tier"`
}

// Parse handles POST /parse
func (h *TransactionsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.preview, http.StatusOK)
}

// CreateTransaction handles POST /transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.ingest, http.StatusCreated)
}

func (h *TransactionsHandler) run(w http.ResponseWriter, r *http.Request, runner jobs.Runner, status int) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := runner.Run(r.Context(), req.Text)
	if err != nil {
		writePipelineError(w, middleware.RequestLogger(r, h.log), err)
		return
	}

	middleware.WriteJSON(w, status, parseResponse{Record: state.Record, Tier: string(state.Tier)})
}

// ListTransactions handles GET /transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	period, _, err := periodFromQuery(r.URL.Query(), h.today(), stats.WindowAll)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.ledger.List(r.Context(), period)
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"count":        len(records),
	})
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLedgerError(w, r, err, "Failed to get transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec)
}

// UpdateTransaction handles PATCH /transactions/{id}. The body maps
// column names to new values.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if !decodeJSON(w, r, &fields) {
		return
	}
	if len(fields) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	rec, err := h.ledger.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		h.writeLedgerError(w, r, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec)
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeLedgerError(w, r, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /search?q=&limit=
func (h *TransactionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	records, err := h.ledger.List(r.Context(), domain.AllTime)
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to read transactions for search")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to search transactions")
		return
	}

	found := search.Search(records, query.Get("q"))
	shown := search.Limit(found, intParam(query, "limit", defaultSearchLimit))
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": shown,
		"count":        len(shown),
		"total":        len(found),
	})
}

func (h *TransactionsHandler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, ledger.ErrInvalidField):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

