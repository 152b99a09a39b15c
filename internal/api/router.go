// Package api assembles the HTTP surface.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/api/handlers"
	"github.com/dvloznov/fincopilot/internal/api/middleware"
	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/jobs"
)

// NewRouter registers every endpoint and wraps the mux in the standard
// middleware chain.
func NewRouter(a *app.App, publisher jobs.Publisher, jobStore jobs.JobStore, log zerolog.Logger) http.Handler {
	today := a.Today

	transactions := handlers.NewTransactionsHandler(a.Preview, a.Ingest, a.Ledger, today, log)
	messages := handlers.NewMessagesHandler(publisher, a.Parser.IsTransactionMessage, log)
	reports := handlers.NewReportsHandler(a.Ledger, a.Engine, a.Reporter, today, log)
	budgets := handlers.NewBudgetsHandler(a.Budgets, a.Config.App.OwnerID, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /parse", transactions.Parse)
	mux.HandleFunc("POST /transactions", transactions.CreateTransaction)
	mux.HandleFunc("GET /transactions", transactions.ListTransactions)
	mux.HandleFunc("GET /transactions/{id}", transactions.GetTransaction)
	mux.HandleFunc("PATCH /transactions/{id}", transactions.UpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", transactions.DeleteTransaction)
	mux.HandleFunc("GET /search", transactions.Search)

	mux.HandleFunc("POST /messages", messages.PostMessage)

	mux.HandleFunc("GET /reports/stats", reports.Stats)
	mux.HandleFunc("GET /reports/top", reports.Top)
	mux.HandleFunc("GET /reports/profit", reports.Profit)
	mux.HandleFunc("GET /reports/narrative", reports.Narrative)
	mux.HandleFunc("GET /reports/insights", reports.Insights)

	mux.HandleFunc("PUT /budgets", budgets.SetBudget)
	mux.HandleFunc("GET /budgets", budgets.ListBudgets)
	mux.HandleFunc("DELETE /budgets", budgets.DeleteBudget)
	mux.HandleFunc("GET /budgets/status", budgets.BudgetStatus)

	mux.HandleFunc("GET /jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /jobs/{id}", jobsHandler.GetJob)

	mux.HandleFunc("GET /health", handlers.Health(handlers.HealthInfo{
		Storage:     a.Config.Storage.Backend,
		LLMProvider: a.Config.LLM.Provider,
		LLMModel:    a.Config.LLM.Model,
	}))

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
		middleware.Timeout(a.Config.Server.RequestTimeout),
	)
}
