// Package pipeline runs one statement through parsing, categorization,
// validation and persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/parser"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
	log   zerolog.Logger
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(log zerolog.Logger, steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps, log: log}
}

// Execute runs all steps in the pipeline sequentially and stops at the
// first failure. The returned error wraps the step's error unchanged.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		start := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			p.log.Warn().
				Err(err).
				Str("step", step.Name()).
				Msg("pipeline step failed")
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		p.log.Debug().
			Str("step", step.Name()).
			Dur("took", time.Since(start)).
			Msg("pipeline step done")
	}
	return nil
}

// Run executes the pipeline for one statement and returns the final state.
func (p *Pipeline) Run(ctx context.Context, text string) (*PipelineState, error) {
	state := &PipelineState{Text: text}
	if err := p.Execute(ctx, state); err != nil {
		return state, err
	}
	if state.Persisted {
		p.log.Info().
			Str("record_id", state.Record.ID).
			Str("type", string(state.Record.Kind)).
			Str("category", state.Record.Category).
			Float64("amount", state.Record.Amount).
			Str("tier", string(state.Tier)).
			Msg("transaction recorded")
	}
	return state, nil
}

// NewIngestionPipeline creates the standard four-step pipeline that ends
// with the record in the store.
func NewIngestionPipeline(p TextParser, c Categorizer, store RecordAppender, log zerolog.Logger) *Pipeline {
	return NewPipeline(log,
		&ParseStep{Parser: p},
		&CategorizeStep{Categorizer: c},
		&ValidateStep{},
		&PersistStep{Store: store},
	)
}

// NewPreviewPipeline parses, categorizes and validates without storing.
func NewPreviewPipeline(p TextParser, c Categorizer, log zerolog.Logger) *Pipeline {
	return NewPipeline(log,
		&ParseStep{Parser: p},
		&CategorizeStep{Categorizer: c},
		&ValidateStep{},
	)
}

// FromParser builds the ingestion pipeline over a parser and its model tier.
func FromParser(p *parser.Parser, store RecordAppender, log zerolog.Logger) *Pipeline {
	return NewIngestionPipeline(p, p.Interpreter(), store, log)
}
