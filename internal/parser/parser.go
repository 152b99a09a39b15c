package parser

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/llm"
)

// Tier records which branch of the fallback chain produced a record.
type Tier string

const (
	// TierEnriched: the matcher classified the text and the model filled in the rest.
	TierEnriched Tier = "enriched"
	// TierDeterministic: the matcher classified the text and the model call failed.
	TierDeterministic Tier = "deterministic"
	// TierInterpreted: the matcher found nothing and the model extracted everything.
	TierInterpreted Tier = "interpreted"
)

// Outcome is the success branch of Parse.
type Outcome struct {
	Record domain.TransactionRecord
	Tier   Tier
}

// Parser composes the Matcher and the Interpreter into the fallback chain.
// It keeps no state between calls.
type Parser struct {
	matcher     *Matcher
	interpreter *Interpreter
	vocab       domain.Vocabulary
	log         zerolog.Logger
}

// New creates a parser. completer may be shared with other components.
func New(completer llm.Completer, cfg Config, log zerolog.Logger) *Parser {
	cfg = cfg.withDefaults()
	return &Parser{
		matcher:     NewMatcher(cfg),
		interpreter: NewInterpreter(completer, cfg, log),
		vocab:       cfg.Vocabulary,
		log:         log,
	}
}

// Interpreter exposes the model tier for categorization.
func (p *Parser) Interpreter() *Interpreter { return p.interpreter }

// Parse turns one statement into a record. Failures are *Failure values
// that match ErrAmbiguousInput, ErrInterpreterUnavailable or
// ErrMalformedModelOutput with errors.Is.
func (p *Parser) Parse(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, &Failure{Kind: AmbiguousInput, Err: errors.New("empty message")}
	}

	if partial, ok := p.matcher.Match(text).Partial(); ok {
		enriched, err := p.interpreter.Interpret(ctx, text, &partial)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("record_id", partial.ID).
				Msg("enrichment failed, keeping deterministic record")
			return Outcome{Record: partial, Tier: TierDeterministic}, nil
		}
		return Outcome{Record: enriched, Tier: TierEnriched}, nil
	}

	rec, err := p.interpreter.Interpret(ctx, text, nil)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Amount == 0 {
		return Outcome{}, &Failure{Kind: AmbiguousInput, Field: "amount", Err: errors.New("no amount recognized")}
	}
	return Outcome{Record: rec, Tier: TierInterpreted}, nil
}

// IsTransactionMessage reports whether a chat message opens with one of the
// configured trigger words and should be routed to Parse.
func (p *Parser) IsTransactionMessage(text string) bool {
	return p.vocab.IsTrigger(text)
}
