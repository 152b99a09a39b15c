// Package stats aggregates stored transaction rows into period statistics
// and budget positions.
package stats

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// coercionSkip tags log lines for rows left out of an aggregate.
const coercionSkip = "coercion_skip"

// Engine computes FinancialStats over untyped store rows. It holds only
// configuration and is safe for concurrent use.
type Engine struct {
	vocab domain.Vocabulary
	log   zerolog.Logger
}

// NewEngine creates an engine that resolves kinds through vocab.
func NewEngine(vocab domain.Vocabulary, log zerolog.Logger) *Engine {
	return &Engine{vocab: vocab, log: log}
}

// ComputeStats aggregates the rows that fall inside period. Rows whose
// kind or amount cannot be read, or whose amount is negative, are skipped,
// logged and counted in Anomalies; they never fail the aggregation.
func (e *Engine) ComputeStats(rows []store.Row, period domain.Period) domain.FinancialStats {
	var (
		income  = decimal.Zero
		expense = decimal.Zero
		byInc   = map[string]decimal.Decimal{}
		byExp   = map[string]decimal.Decimal{}
	)
	result := domain.ZeroStats()

	for _, row := range rows {
		if !period.Contains(row[store.ColDate]) {
			continue
		}

		kind, ok := e.vocab.ResolveKind(row[store.ColType])
		if !ok {
			e.skip(row, "unknown type")
			result.Anomalies++
			continue
		}

		amount, err := coerceAmount(row[store.ColAmount])
		if err != nil {
			e.skip(row, "uncoercible amount")
			result.Anomalies++
			continue
		}
		if amount.IsNegative() {
			e.skip(row, "negative amount")
			result.Anomalies++
			continue
		}

		category := strings.TrimSpace(row[store.ColCategory])
		if category == "" {
			category = domain.DefaultCategory
		}

		switch kind {
		case domain.Income:
			income = income.Add(amount)
			byInc[category] = byInc[category].Add(amount)
		case domain.Expense:
			expense = expense.Add(amount)
			byExp[category] = byExp[category].Add(amount)
		}
		result.TransactionsCount++
	}

	result.TotalIncome = income.InexactFloat64()
	result.TotalExpense = expense.InexactFloat64()
	result.Profit = income.Sub(expense).InexactFloat64()
	for c, v := range byInc {
		result.IncomeByCategory[c] = v.InexactFloat64()
	}
	for c, v := range byExp {
		result.ExpenseByCategory[c] = v.InexactFloat64()
	}
	return result
}

func (e *Engine) skip(row store.Row, reason string) {
	e.log.Warn().
		Str("error_kind", coercionSkip).
		Str("uuid", row[store.ColUUID]).
		Str("type", row[store.ColType]).
		Str("amount", row[store.ColAmount]).
		Msg("row skipped during aggregation: " + reason)
}

func coerceAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(domain.NormalizeAmount(s))
}

// ComputeBudgetStatus derives the spend position of each budget from the
// expense breakdown in stats. The result keeps the order of budgets.
func ComputeBudgetStatus(budgets []domain.BudgetEntry, stats domain.FinancialStats) []domain.BudgetStatus {
	result := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := stats.ExpenseByCategory[b.Category]
		remaining := decimal.NewFromFloat(b.Amount).Sub(decimal.NewFromFloat(spent))
		result = append(result, domain.BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: remaining.InexactFloat64(),
			Overspent: spent > b.Amount,
		})
	}
	return result
}
