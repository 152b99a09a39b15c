package jobs

import (
	"context"
	"errors"

	"github.com/dvloznov/fincopilot/internal/parser"
	"github.com/dvloznov/fincopilot/internal/pipeline"
)

const failureInvalidRecord = "invalid_record"

// Runner runs one statement through the ingestion pipeline.
// *pipeline.Pipeline is the production implementation.
type Runner interface {
	Run(ctx context.Context, text string) (*pipeline.PipelineState, error)
}

var _ Runner = (*pipeline.Pipeline)(nil)

// IngestHandler returns the handler for ingest_text jobs. Parse and
// validation failures are permanent; an unavailable model or a store
// error may be retried.
func IngestHandler(run Runner) JobHandler {
	return func(ctx context.Context, job *IngestTextJob) error {
		state, err := run.Run(ctx, job.Text)
		if state != nil {
			job.Tier = string(state.Tier)
			if state.Persisted {
				job.RecordID = state.Record.ID
			}
		}
		if err == nil {
			job.FailureKind = ""
			return nil
		}

		job.FailureKind = string(parser.KindOf(err))
		if errors.Is(err, pipeline.ErrInvalidRecord) {
			job.FailureKind = failureInvalidRecord
		}
		switch {
		case errors.Is(err, parser.ErrAmbiguousInput),
			errors.Is(err, parser.ErrMalformedModelOutput),
			errors.Is(err, pipeline.ErrInvalidRecord):
			return Permanent(err)
		}
		return err
	}
}
