package domain

import "strings"

// DefaultCategory is used when the model answers outside the vocabulary
// or a stored row has no category.
const DefaultCategory = "прочее"

// Vocabulary is the configurable synonym table shared by the matcher,
// the interpreter and the aggregation engine.
type Vocabulary struct {
	ExpenseKeywords []string `mapstructure:"expense_keywords"`
	IncomeKeywords  []string `mapstructure:"income_keywords"`
	Categories      []string `mapstructure:"categories"`
	// TriggerPrefixes are message openings treated as transaction statements.
	TriggerPrefixes []string `mapstructure:"trigger_prefixes"`
}

// DefaultVocabulary returns the built-in Russian and English word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ExpenseKeywords: []string{
			"расход", "трата", "затрат", "потратил", "оплатил", "покупка",
			"expense", "spent", "paid", "bought",
		},
		IncomeKeywords: []string{
			"доход", "приход", "заработал", "получил", "выручка", "прибыль",
			"income", "earned", "received", "revenue",
		},
		Categories: []string{
			"маркетинг", "зарплата", "аренда", "продукты", "транспорт",
			"оборудование", "услуги", "развлечения", "налоги", DefaultCategory,
		},
		TriggerPrefixes: []string{
			"доход", "расход", "приход", "трата", "затрата",
			"income", "expense",
		},
	}
}

// ResolveKind derives a kind from free text by substring containment.
// Canonical values win outright; otherwise expense words are tried before
// income words.
func (v Vocabulary) ResolveKind(text string) (Kind, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	switch Kind(s) {
	case Income, Expense:
		return Kind(s), true
	}
	if containsAny(s, v.ExpenseKeywords) {
		return Expense, true
	}
	if containsAny(s, v.IncomeKeywords) {
		return Income, true
	}
	return "", false
}

// HasCategory reports whether name is one of the configured categories.
func (v Vocabulary) HasCategory(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range v.Categories {
		if strings.ToLower(c) == n {
			return true
		}
	}
	return false
}

// IsTrigger reports whether text opens with one of the trigger prefixes.
func (v Vocabulary) IsTrigger(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, p := range v.TriggerPrefixes {
		if p != "" && strings.HasPrefix(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
