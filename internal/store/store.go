// Package store defines the storage collaborator contract: a flat tabular
// store whose cells are read back as untyped strings.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Column names of the Transactions sheet, in persisted order.
const (
	ColUUID        = "uuid"
	ColDate        = "date"
	ColType        = "type"
	ColCategory    = "category"
	ColSubcategory = "subcategory"
	ColAmount      = "amount"
	ColCurrency    = "currency"
	ColDescription = "description"
	ColSource      = "source"
	ColCreatedAt   = "created_at"
)

// Column names of the Budgets sheet, in persisted order.
const (
	ColUserID    = "user_id"
	ColPeriod    = "period"
	ColUpdatedAt = "updated_at"
)

// TransactionColumns is the fixed column order of the Transactions sheet.
var TransactionColumns = []string{
	ColUUID, ColDate, ColType, ColCategory, ColSubcategory,
	ColAmount, ColCurrency, ColDescription, ColSource, ColCreatedAt,
}

// BudgetColumns is the fixed column order of the Budgets sheet.
var BudgetColumns = []string{
	ColUserID, ColCategory, ColAmount, ColPeriod, ColCreatedAt, ColUpdatedAt,
}

// ErrNotFound is returned when no row has the requested key.
var ErrNotFound = errors.New("not found")

// Row is one stored row keyed by column name. Values are never typed.
type Row map[string]string

// TransactionStore persists transaction rows. Writers are not serialized:
// concurrent appends may interleave and duplicates are detectable by uuid.
type TransactionStore interface {
	Append(ctx context.Context, rec domain.TransactionRecord) error
	// Read returns rows whose date falls in period, in insertion order.
	Read(ctx context.Context, period domain.Period) ([]Row, error)
	FindByID(ctx context.Context, id string) (Row, error)
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
	DeleteByID(ctx context.Context, id string) error
}

// BudgetStore persists budget rows keyed by (owner, category, period).
type BudgetStore interface {
	ListBudgets(ctx context.Context, ownerID string) ([]Row, error)
	AppendBudget(ctx context.Context, b domain.BudgetEntry) error
	// UpdateBudget overwrites amount and updated_at of the row with b's key.
	UpdateBudget(ctx context.Context, b domain.BudgetEntry) error
	DeleteBudget(ctx context.Context, ownerID, category string, period domain.BudgetPeriod) error
}

// SchemaEnsurer validates and, if needed, rewrites the header rows or tables.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Store is the full storage collaborator used by the commands.
type Store interface {
	TransactionStore
	BudgetStore
	SchemaEnsurer
	Close() error
}
