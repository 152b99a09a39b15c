package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// amountPattern matches the first decimal-like number; a comma is accepted
// as the decimal separator.
var amountPattern = regexp.MustCompile(`\d+[.,]?\d*`)

// Match is the tagged result of the deterministic tier: either Matched with
// a partial record, or NoMatch.
type Match struct {
	partial *domain.TransactionRecord
}

// NoMatch is the fast-path-inapplicable outcome.
var NoMatch = Match{}

// Matched wraps a partial record.
func Matched(partial domain.TransactionRecord) Match {
	return Match{partial: &partial}
}

// Partial returns the partial record and whether the matcher classified the text.
func (m Match) Partial() (domain.TransactionRecord, bool) {
	if m.partial == nil {
		return domain.TransactionRecord{}, false
	}
	return *m.partial, true
}

// Matcher classifies clearly structured statements without network calls.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a matcher using the vocabulary and defaults in cfg.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg.withDefaults()}
}

// Match tries keyword classification and amount extraction. Absence of a
// keyword or a number yields NoMatch; Match never fails.
func (m *Matcher) Match(text string) Match {
	lower := strings.ToLower(text)

	var kind domain.Kind
	switch {
	case containsAny(lower, m.cfg.Vocabulary.ExpenseKeywords):
		kind = domain.Expense
	case containsAny(lower, m.cfg.Vocabulary.IncomeKeywords):
		kind = domain.Income
	default:
		return NoMatch
	}

	amount, ok := extractAmount(lower)
	if !ok {
		return NoMatch
	}

	return Matched(domain.TransactionRecord{
		ID:          m.cfg.NewID(),
		OccurredOn:  m.cfg.today(),
		Kind:        kind,
		Amount:      amount,
		Currency:    m.cfg.HomeCurrency,
		Description: strings.TrimSpace(text),
		Source:      m.cfg.Source,
		RecordedAt:  m.cfg.now(),
	})
}

func extractAmount(text string) (float64, bool) {
	raw := amountPattern.FindString(text)
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimRight(strings.Replace(raw, ",", ".", 1), ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
