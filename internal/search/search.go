// Package search implements free-text lookup over stored records.
package search

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Search returns the records whose description, category or amount
// contains query, compared case-folded. Matching is plain substring
// containment, surrounding spaces included, and the result keeps the input
// order. An empty query matches every record.
func Search(records []domain.TransactionRecord, query string) []domain.TransactionRecord {
	fold := cases.Fold()
	q := fold.String(query)

	result := make([]domain.TransactionRecord, 0)
	for _, rec := range records {
		if matches(fold, rec, q) {
			result = append(result, rec)
		}
	}
	return result
}

func matches(fold cases.Caser, rec domain.TransactionRecord, q string) bool {
	return strings.Contains(fold.String(rec.Description), q) ||
		strings.Contains(fold.String(rec.Category), q) ||
		strings.Contains(strconv.FormatFloat(rec.Amount, 'f', -1, 64), q)
}

// Limit caps a result list for display without changing its order.
func Limit(records []domain.TransactionRecord, n int) []domain.TransactionRecord {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}
