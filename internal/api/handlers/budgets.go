package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/budget"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// BudgetsHandler manages spending ceilings.
type BudgetsHandler struct {
	service      *budget.Service
	defaultOwner string
	log          zerolog.Logger
}

// NewBudgetsHandler creates a new budgets handler. Requests without an
// owner act on defaultOwner.
func NewBudgetsHandler(service *budget.Service, defaultOwner string, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{service: service, defaultOwner: defaultOwner, log: log}
}

type budgetRequest struct {
	Owner    string  `json:"owner"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"`
}

func (h *BudgetsHandler) owner(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return h.defaultOwner
}

// SetBudget handles PUT /budgets
func (h *BudgetsHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	period, err := domain.ParseBudgetPeriod(req.Period)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.service.Set(r.Context(), h.owner(req.Owner), req.Category, req.Amount, period)
	if err != nil {
		if errors.Is(err, budget.ErrInvalidBudget) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to set budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to set budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, entry)
}

// ListBudgets handles GET /budgets?owner=
func (h *BudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.List(r.Context(), h.owner(r.URL.Query().Get("owner")))
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to list budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}

// DeleteBudget handles DELETE /budgets?owner=&category=&period=
func (h *BudgetsHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period, err := domain.ParseBudgetPeriod(query.Get("period"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := query.Get("category")
	if strings.TrimSpace(category) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "category is required")
		return
	}

	if err := h.service.Delete(r.Context(), h.owner(query.Get("owner")), category, period); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Budget not found")
			return
		}
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to delete budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BudgetStatus handles GET /budgets/status?owner=&overspent=true
func (h *BudgetsHandler) BudgetStatus(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	owner := h.owner(query.Get("owner"))

	var (
		statuses []domain.BudgetStatus
		err      error
	)
	if query.Get("overspent") == "true" {
		statuses, err = h.service.Overspent(r.Context(), owner)
	} else {
		statuses, err = h.service.Status(r.Context(), owner)
	}
	if err != nil {
		reqLog := middleware.RequestLogger(r, h.log)
		reqLog.Error().Err(err).Msg("Failed to compute budget status")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute budget status")
		return
	}
	if statuses == nil {
		statuses = []domain.BudgetStatus{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statuses": statuses,
		"count":    len(statuses),
	})
}
