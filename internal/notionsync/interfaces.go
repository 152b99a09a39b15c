package notionsync

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// NotionService is the subset of the Notion API the mirror needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	// DeletePage archives the page; Notion has no hard delete.
	DeletePage(ctx context.Context, pageID string) error
}

// RecordLister supplies the records to mirror.
type RecordLister interface {
	List(ctx context.Context, period domain.Period) ([]domain.TransactionRecord, error)
}

var _ NotionService = (*NotionClient)(nil)
