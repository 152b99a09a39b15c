package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/logger"
	"github.com/dvloznov/fincopilot/internal/notionsync"
	"github.com/dvloznov/fincopilot/internal/stats"
)

func main() {
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (default: open)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (default: open)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides notion.token)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides notion.database_id)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or notion.token is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: --notion-db-id or notion.database_id is required")
	}

	period, err := stats.ParsePeriod(*startDateStr, *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid date range")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	syncer := notionsync.NewSyncer(
		notionsync.NewNotionClient(cfg.Notion.Token),
		a.Ledger,
		cfg.Notion.DatabaseID,
		log.With().Str("component", "notionsync").Logger(),
	)

	res, err := syncer.Sync(ctx, period, *dryRun)
	if err != nil {
		log.Error().Err(err).Msg("Sync failed")
		a.Close()
		os.Exit(1)
	}

	prefix := ""
	if *dryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Printf("%sSync completed: %d created, %d updated, %d deleted, %d failed of %d records.\n",
		prefix, res.Created, res.Updated, res.Deleted, res.Failed, res.Total)
}
