package handlers

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/ledger"
	"github.com/dvloznov/fincopilot/internal/report"
	"github.com/dvloznov/fincopilot/internal/stats"
)

const defaultTopN = 5

// ReportsHandler renders aggregates over a period.
type ReportsHandler struct {
	ledger   *ledger.Ledger
	engine   *stats.Engine
	reporter *report.Reporter
	today    func() civil.Date
	log      zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(led *ledger.Ledger, engine *stats.Engine, reporter *report.Reporter, today func() civil.Date, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		ledger:   led,
		engine:   engine,
		reporter: reporter,
		today:    today,
		log:      log,
	}
}

type statsRequest struct {
	period domain.Period
	label  string
	stats  domain.FinancialStats
}

// load reads the period from the query and aggregates it, writing the
// error response itself when it fails.
func (h *ReportsHandler) load(w http.ResponseWriter, r *http.Request) (statsRequest, bool) {
	period, window, err := periodFromQuery(r.URL.Query(), h.today(), stats.WindowMonth)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return statsRequest{}, false
	}
	rows, err := h.ledger.Rows(r.Context(), period)
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to read transactions for report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read transactions")
		return statsRequest{}, false
	}
	return statsRequest{
		period: period,
		label:  report.PeriodLabel(window, period),
		stats:  h.engine.ComputeStats(rows, period),
	}, true
}

// Stats handles GET /reports/stats
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period": req.period.String(),
		"stats":  req.stats,
		"text":   h.reporter.Basic(req.stats, req.label),
	})
}

// Top handles GET /reports/top?n=
func (h *ReportsHandler) Top(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	n := intParam(r.URL.Query(), "n", defaultTopN)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":     req.period.String(),
		"categories": stats.TopCategories(req.stats.ExpenseByCategory, n),
		"text":       h.reporter.Top(req.stats, req.label, n),
	})
}

// Profit handles GET /reports/profit
func (h *ReportsHandler) Profit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":        req.period.String(),
		"total_income":  req.stats.TotalIncome,
		"total_expense": req.stats.TotalExpense,
		"profit":        req.stats.Profit,
		"margin":        stats.ProfitMargin(req.stats),
		"text":          h.reporter.Profit(req.stats, req.label),
	})
}

// Narrative handles GET /reports/narrative. "analyzed" is false when the
// model was unavailable and the plain report was returned instead.
func (h *ReportsHandler) Narrative(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	text, analyzed := h.reporter.Narrative(r.Context(), req.stats, req.label)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":   req.period.String(),
		"text":     text,
		"analyzed": analyzed,
	})
}

// Insights handles GET /reports/insights
func (h *ReportsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.List(r.Context(), domain.AllTime)
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to read transactions for insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"text": h.reporter.Insights(r.Context(), records),
	})
}
