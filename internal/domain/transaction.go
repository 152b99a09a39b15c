package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind is the direction of money movement for a transaction.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// ParseKind accepts the canonical kind names only. Free-text kinds read back
// from storage go through Vocabulary.ResolveKind instead.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

// TransactionRecord is one normalized financial event.
// It is produced by the parser and handed to a TransactionStore as a row.
type TransactionRecord struct {
	ID          string     `json:"id"`                    // uuid, provisional ids survive enrichment
	OccurredOn  civil.Date `json:"date"`                  // "date" column
	Kind        Kind       `json:"type"`                  // "type" column
	Category    string     `json:"category"`              // from the category vocabulary, not enforced
	Subcategory string     `json:"subcategory,omitempty"`
	Amount      float64    `json:"amount"`                // always >= 0, the kind carries the sign
	Currency    string     `json:"currency"`              // defaults to the home currency
	Description string     `json:"description"`
	Source      string     `json:"source,omitempty"`      // origin channel, e.g. "telegram", "api"
	RecordedAt  time.Time  `json:"created_at"`            // "created_at" column
}

// Signed returns the amount with the sign implied by the kind.
func (r TransactionRecord) Signed() float64 {
	if r.Kind == Expense {
		return -r.Amount
	}
	return r.Amount
}
