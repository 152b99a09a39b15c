package pipeline

import (
	"context"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/parser"
)

// TextParser turns one free-text statement into a record.
// *parser.Parser is the production implementation.
type TextParser interface {
	Parse(ctx context.Context, text string) (parser.Outcome, error)
}

// Categorizer picks a category for a description. It never fails; unknown
// descriptions map to the default category.
// *parser.Interpreter is the production implementation.
type Categorizer interface {
	Categorize(ctx context.Context, description string) string
}

// RecordAppender is the write side of the transaction store.
type RecordAppender interface {
	Append(ctx context.Context, rec domain.TransactionRecord) error
}

var (
	_ TextParser  = (*parser.Parser)(nil)
	_ Categorizer = (*parser.Interpreter)(nil)
)
