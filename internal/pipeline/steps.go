package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/parser"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Text      string
	Record    domain.TransactionRecord
	Tier      parser.Tier
	Persisted bool
}

// Step 1: ParseStep turns the statement into a record.
type ParseStep struct {
	Parser TextParser
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	out, err := s.Parser.Parse(ctx, state.Text)
	if err != nil {
		return err
	}
	state.Record = out.Record
	state.Tier = out.Tier
	return nil
}

// Step 2: CategorizeStep fills a missing category from the description.
// Records that already carry a category are left alone.
type CategorizeStep struct {
	Categorizer Categorizer
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if strings.TrimSpace(state.Record.Category) != "" {
		return nil
	}
	desc := state.Record.Description
	if desc == "" {
		desc = state.Text
	}
	state.Record.Category = s.Categorizer.Categorize(ctx, desc)
	return nil
}

// Step 3: ValidateStep rejects records that must not reach the store.
type ValidateStep struct{}

func (s *ValidateStep) Name() string { return "validate" }

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	return ValidateRecord(state.Record)
}

// Step 4: PersistStep appends the record to the store.
type PersistStep struct {
	Store RecordAppender
}

func (s *PersistStep) Name() string { return "persist" }

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Store.Append(ctx, state.Record); err != nil {
		return fmt.Errorf("append record %s: %w", state.Record.ID, err)
	}
	state.Persisted = true
	return nil
}
