// Package ledger reads, edits and deletes stored transaction records.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// ErrInvalidField is returned for edits with an unknown column or a value
// that does not parse.
var ErrInvalidField = errors.New("invalid field")

// Ledger is the record-level view over a TransactionStore.
type Ledger struct {
	store store.TransactionStore
	vocab domain.Vocabulary
	log   zerolog.Logger
}

// New creates a ledger over st.
func New(st store.TransactionStore, vocab domain.Vocabulary, log zerolog.Logger) *Ledger {
	return &Ledger{store: st, vocab: vocab, log: log}
}

// Rows returns the raw rows of period, for the aggregation engine.
func (l *Ledger) Rows(ctx context.Context, period domain.Period) ([]store.Row, error) {
	rows, err := l.store.Read(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("ledger.Rows: %w", err)
	}
	return rows, nil
}

// List returns the records of period in insertion order. Unreadable
// fields are left zero.
func (l *Ledger) List(ctx context.Context, period domain.Period) ([]domain.TransactionRecord, error) {
	rows, err := l.Rows(ctx, period)
	if err != nil {
		return nil, err
	}
	return store.DecodeRecords(rows, l.vocab, l.log), nil
}

// Get returns one record by id.
func (l *Ledger) Get(ctx context.Context, id string) (domain.TransactionRecord, error) {
	row, err := l.store.FindByID(ctx, id)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("ledger.Get: %w", err)
	}
	recs := store.DecodeRecords([]store.Row{row}, l.vocab, l.log)
	return recs[0], nil
}

// Update edits the given fields of a record. Values are normalized the way
// new records are written: kind canonical, amount re-validated, category
// lower-cased, currency upper-cased.
func (l *Ledger) Update(ctx context.Context, id string, fields map[string]string) (domain.TransactionRecord, error) {
	normalized, err := l.normalize(fields)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("ledger.Update: %w", err)
	}
	if err := l.store.UpdateFields(ctx, id, normalized); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("ledger.Update: %w", err)
	}
	l.log.Info().Str("record_id", id).Interface("fields", normalized).Msg("transaction updated")
	return l.Get(ctx, id)
}

// Delete removes a record.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ledger.Delete: %w", err)
	}
	l.log.Info().Str("record_id", id).Msg("transaction deleted")
	return nil
}

func (l *Ledger) normalize(fields map[string]string) (map[string]string, error) {
	if err := store.ValidateUpdate(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		v = strings.TrimSpace(v)
		switch k {
		case store.ColType:
			kind, ok := l.vocab.ResolveKind(v)
			if !ok {
				return nil, fmt.Errorf("%w: type %q", ErrInvalidField, v)
			}
			v = string(kind)
		case store.ColAmount:
			a, err := domain.ParseAmount(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
			}
			if err := domain.ValidateAmount(a); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
			}
			v = store.FormatAmount(a)
		case store.ColDate:
			d, err := civil.ParseDate(v)
			if err != nil {
				return nil, fmt.Errorf("%w: date %q, want YYYY-MM-DD", ErrInvalidField, v)
			}
			v = d.String()
		case store.ColCategory:
			v = strings.ToLower(v)
		case store.ColCurrency:
			v = strings.ToUpper(v)
		case store.ColCreatedAt:
			return nil, fmt.Errorf("%w: %s cannot be edited", ErrInvalidField, k)
		}
		out[k] = v
	}
	return out, nil
}
