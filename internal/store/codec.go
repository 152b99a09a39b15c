package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// FormatAmount renders an amount the way it is written to storage.
func FormatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// EncodeRecord maps a record onto the Transactions columns.
func EncodeRecord(rec domain.TransactionRecord) Row {
	return Row{
		ColUUID:        rec.ID,
		ColDate:        rec.OccurredOn.String(),
		ColType:        string(rec.Kind),
		ColCategory:    rec.Category,
		ColSubcategory: rec.Subcategory,
		ColAmount:      FormatAmount(rec.Amount),
		ColCurrency:    rec.Currency,
		ColDescription: rec.Description,
		ColSource:      rec.Source,
		ColCreatedAt:   rec.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// Values returns the row's cells in the given column order.
func (r Row) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// RowFromValues zips a header with a list of cells. Missing trailing
// cells become empty strings.
func RowFromValues(header, values []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if i < len(values) {
			row[h] = values[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

// DecodeRecord parses a stored row. The kind must be canonical or
// resolvable through vocab and the amount must coerce; otherwise the
// returned error lists every unreadable field, and rec still carries all
// the fields that could be read.
func DecodeRecord(row Row, vocab domain.Vocabulary) (domain.TransactionRecord, error) {
	rec := domain.TransactionRecord{
		ID:          strings.TrimSpace(row[ColUUID]),
		Category:    strings.TrimSpace(row[ColCategory]),
		Subcategory: strings.TrimSpace(row[ColSubcategory]),
		Currency:    strings.TrimSpace(row[ColCurrency]),
		Description: row[ColDescription],
		Source:      row[ColSource],
	}

	var errs []error
	if kind, ok := vocab.ResolveKind(row[ColType]); ok {
		rec.Kind = kind
	} else {
		errs = append(errs, fmt.Errorf("row %s: unknown type %q", rec.ID, row[ColType]))
	}

	if amount, err := domain.ParseAmount(row[ColAmount]); err == nil {
		rec.Amount = amount
	} else {
		errs = append(errs, fmt.Errorf("row %s: %w", rec.ID, err))
	}

	if d, err := civil.ParseDate(strings.TrimSpace(row[ColDate])); err == nil {
		rec.OccurredOn = d
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[ColCreatedAt])); err == nil {
		rec.RecordedAt = ts
	}
	return rec, errors.Join(errs...)
}

// DecodeRecords parses rows for display and search. A row whose kind or
// amount cannot be read is kept with the zero value for that field and
// logged, so free-text search still sees it.
func DecodeRecords(rows []Row, vocab domain.Vocabulary, log zerolog.Logger) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := DecodeRecord(row, vocab)
		if err != nil {
			log.Warn().Err(err).Str("uuid", row[ColUUID]).Msg("row decoded partially")
		}
		out = append(out, rec)
	}
	return out
}

// EncodeBudget maps a budget onto the Budgets columns.
func EncodeBudget(b domain.BudgetEntry) Row {
	return Row{
		ColUserID:    b.OwnerID,
		ColCategory:  b.Category,
		ColAmount:    FormatAmount(b.Amount),
		ColPeriod:    string(b.Period),
		ColCreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		ColUpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// DecodeBudget parses a stored budget row.
func DecodeBudget(row Row) (domain.BudgetEntry, error) {
	period, err := domain.ParseBudgetPeriod(row[ColPeriod])
	if err != nil {
		return domain.BudgetEntry{}, err
	}
	amount, err := domain.ParseAmount(row[ColAmount])
	if err != nil {
		return domain.BudgetEntry{}, fmt.Errorf("budget %s/%s: %w", row[ColUserID], row[ColCategory], err)
	}
	b := domain.BudgetEntry{
		OwnerID:  strings.TrimSpace(row[ColUserID]),
		Category: strings.TrimSpace(row[ColCategory]),
		Amount:   amount,
		Period:   period,
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, strings.TrimSpace(row[ColCreatedAt]))
	b.UpdatedAt, _ = time.Parse(time.RFC3339, strings.TrimSpace(row[ColUpdatedAt]))
	return b, nil
}

// SameBudgetKey reports whether a stored budget row belongs to the given key.
func SameBudgetKey(row Row, ownerID, category string, period domain.BudgetPeriod) bool {
	p, err := domain.ParseBudgetPeriod(row[ColPeriod])
	if err != nil {
		return false
	}
	return strings.TrimSpace(row[ColUserID]) == ownerID &&
		strings.EqualFold(strings.TrimSpace(row[ColCategory]), category) &&
		p == period
}

// ValidateUpdate rejects edits of unknown columns and of the identifier.
func ValidateUpdate(fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	for k := range fields {
		if k == ColUUID {
			return fmt.Errorf("field %q cannot be edited", k)
		}
		if !isColumn(k) {
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}

func isColumn(name string) bool {
	for _, c := range TransactionColumns {
		if c == name {
			return true
		}
	}
	return false
}
