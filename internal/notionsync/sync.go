// Package notionsync mirrors stored transactions into a Notion database.
// Pages are keyed by their "Transaction ID" property.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// BatchSize is the page size used when listing the database and the
// progress interval for logging.
const BatchSize = 100

// Result counts what a sync did, or would do on a dry run.
type Result struct {
	Created int
	Updated int
	Deleted int
	Failed  int
	Total   int
}

// Syncer mirrors records into one database.
type Syncer struct {
	notion     NotionService
	records    RecordLister
	databaseID string
	log        zerolog.Logger
}

// NewSyncer creates a syncer.
func NewSyncer(notion NotionService, records RecordLister, databaseID string, log zerolog.Logger) *Syncer {
	return &Syncer{notion: notion, records: records, databaseID: databaseID, log: log}
}

// Sync upserts every record of period and archives stale pages. A page is
// stale when it carries no Transaction ID, or when its id is no longer
// stored and its date falls inside period. Per-page API failures are
// logged and counted, not returned.
func (s *Syncer) Sync(ctx context.Context, period domain.Period, dryRun bool) (Result, error) {
	log := s.log.With().Str("period", period.String()).Bool("dry_run", dryRun).Logger()
	log.Info().Msg("Starting transaction sync to Notion")

	records, err := s.records.List(ctx, period)
	if err != nil {
		return Result{}, fmt.Errorf("list records: %w", err)
	}
	pages, err := queryAllNotionPages(ctx, s.notion, s.databaseID)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("records", len(records)).Int("pages", len(pages)).Msg("Loaded records and existing pages")

	res := Result{Total: len(records)}
	wanted := make(map[string]bool, len(records))
	for _, rec := range records {
		wanted[rec.ID] = true
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && wanted[txID] {
			if _, dup := existing[txID]; !dup {
				existing[txID] = string(page.ID)
				continue
			}
		}
		if !isStale(page, txID, wanted, period) {
			continue
		}
		if dryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
			res.Deleted++
			continue
		}
		if err := s.notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
			res.Failed++
			continue
		}
		res.Deleted++
	}

	for i, rec := range records {
		if i > 0 && i%BatchSize == 0 {
			log.Info().Int("processed", i).Int("total", len(records)).Msg("Sync progress")
		}
		pageID, found := existing[rec.ID]
		if dryRun {
			if found {
				res.Updated++
			} else {
				res.Created++
			}
			continue
		}

		props := RecordToProperties(rec)
		if found {
			if _, err := s.notion.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", rec.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}
		page, err := s.notion.CreatePage(ctx, s.databaseID, props)
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", rec.ID).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().Str("transaction_id", rec.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Int("total", res.Total).
		Msg("Transaction sync completed")
	return res, nil
}

// isStale covers pages that are not the first mirror of a wanted record.
// Duplicates of a wanted id are always stale.
func isStale(page notionapi.Page, txID string, wanted map[string]bool, period domain.Period) bool {
	if txID == "" || wanted[txID] {
		return true
	}
	date := extractDate(page)
	if date == "" {
		return period == domain.AllTime
	}
	return period.Contains(date)
}

// queryAllNotionPages lists every page of a database, following cursors.
func queryAllNotionPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: BatchSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
