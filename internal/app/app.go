// Package app wires configuration into the services the commands share.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/budget"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/export"
	"github.com/dvloznov/fincopilot/internal/gcsuploader"
	infraBQ "github.com/dvloznov/fincopilot/internal/infra/bigquery"
	"github.com/dvloznov/fincopilot/internal/infra/memory"
	"github.com/dvloznov/fincopilot/internal/infra/sheets"
	"github.com/dvloznov/fincopilot/internal/ledger"
	"github.com/dvloznov/fincopilot/internal/llm"
	"github.com/dvloznov/fincopilot/internal/parser"
	"github.com/dvloznov/fincopilot/internal/pipeline"
	"github.com/dvloznov/fincopilot/internal/report"
	"github.com/dvloznov/fincopilot/internal/stats"
	"github.com/dvloznov/fincopilot/internal/store"
)

// App holds the long-lived services of one process.
type App struct {
	Config config.Config
	Log    zerolog.Logger
	Now    func() time.Time

	Store    store.Store
	LLM      llm.Completer
	Parser   *parser.Parser
	Ingest   *pipeline.Pipeline
	Preview  *pipeline.Pipeline
	Ledger   *ledger.Ledger
	Engine   *stats.Engine
	Reporter *report.Reporter
	Budgets  *budget.Service
	Exporter *export.Exporter

	gcs *gcsuploader.Client
}

// OpenStore connects to the configured storage backend.
func OpenStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSheets:
		client, err := sheets.NewAPIClient(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return sheets.NewStore(client, cfg.Sheets.TransactionsSheet, cfg.Sheets.BudgetsSheet, log), nil
	case config.BackendBigQuery:
		return infraBQ.NewStore(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, log)
	case config.BackendMemory:
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}

// New validates cfg and connects every backend it names.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create completer: %w", err)
	}

	var objects gcsuploader.ObjectStorage
	var gcs *gcsuploader.Client
	if cfg.Export.Bucket != "" {
		if gcs, err = gcsuploader.NewClient(ctx); err != nil {
			st.Close()
			return nil, err
		}
		objects = gcs
	}

	a := Assemble(cfg, log, st, completer, objects, time.Now)
	a.gcs = gcs
	return a, nil
}

// Assemble builds the services over already-connected backends. storage
// may be nil, which disables GCS export.
func Assemble(cfg config.Config, log zerolog.Logger, st store.Store, completer llm.Completer, storage gcsuploader.ObjectStorage, now func() time.Time) *App {
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location()

	p := parser.New(completer, parser.Config{
		HomeCurrency: cfg.App.HomeCurrency,
		Source:       cfg.App.Source,
		Vocabulary:   cfg.Vocabulary,
		Location:     loc,
		Now:          now,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
	}, log.With().Str("component", "parser").Logger())

	engine := stats.NewEngine(cfg.Vocabulary, log.With().Str("component", "stats").Logger())
	led := ledger.New(st, cfg.Vocabulary, log.With().Str("component", "ledger").Logger())

	a := &App{
		Config:   cfg,
		Log:      log,
		Now:      now,
		Store:    st,
		LLM:      completer,
		Parser:   p,
		Ingest:   pipeline.FromParser(p, st, log.With().Str("component", "pipeline").Logger()),
		Preview:  pipeline.NewPreviewPipeline(p, p.Interpreter(), log.With().Str("component", "pipeline").Logger()),
		Ledger:   led,
		Engine:   engine,
		Reporter: report.NewReporter(completer, cfg.App.HomeCurrency, log.With().Str("component", "report").Logger()),
		Budgets:  budget.NewService(st, st, engine, now, loc, log.With().Str("component", "budget").Logger()),
	}
	a.Exporter = export.NewExporter(led, storage, cfg.Export.Bucket, cfg.Export.Prefix, now, log.With().Str("component", "export").Logger())
	return a
}

// Today is the current date in the configured timezone.
func (a *App) Today() civil.Date {
	return civil.DateOf(a.Now().In(a.Config.Location()))
}

// Stats aggregates the stored rows of period.
func (a *App) Stats(ctx context.Context, period domain.Period) (domain.FinancialStats, error) {
	rows, err := a.Ledger.Rows(ctx, period)
	if err != nil {
		return domain.FinancialStats{}, err
	}
	return a.Engine.ComputeStats(rows, period), nil
}

// Close releases the backends opened by New.
func (a *App) Close() error {
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("closing storage client")
		}
	}
	return a.Store.Close()
}
