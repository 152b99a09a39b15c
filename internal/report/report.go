// Package report renders FinancialStats as text, plain or with a
// model-written analysis.
package report

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/llm"
	"github.com/dvloznov/fincopilot/internal/stats"
)

// Sampling settings for the two model-written texts.
const (
	narrativeTemperature = 0.7
	narrativeMaxTokens   = 800

	insightsTemperature = 0.5
	insightsMaxTokens   = 500
	insightsWindow      = 20
	insightsTopN        = 5

	basicTopN = 3
)

// Fallback texts shown when there is nothing to analyze or the model fails.
const (
	NoDataMessage         = "📝 Пока недостаточно данных для анализа. Продолжайте записывать транзакции!"
	InsightsUnavailable   = "💡 Аналитика временно недоступна. Продолжайте записывать транзакции для будущего анализа!"
	narrativeFallbackHint = "💡 Детальный анализ сейчас недоступен, показаны базовые показатели."
)

// Reporter renders reports in one currency.
type Reporter struct {
	llm      llm.Completer
	currency string
	log      zerolog.Logger
}

// NewReporter creates a reporter. completer may be nil, in which case
// Narrative and Insights always fall back to plain text.
func NewReporter(completer llm.Completer, currency string, log zerolog.Logger) *Reporter {
	return &Reporter{llm: completer, currency: currency, log: log}
}

// Basic renders totals, margin and the largest expense categories.
func (r *Reporter) Basic(s domain.FinancialStats, label string) string {
	var b strings.Builder
	b.WriteString("📊 Финансовый отчет за " + label + ":\n\n")
	r.writeTotals(&b, s)

	if top := stats.TopCategories(s.ExpenseByCategory, basicTopN); len(top) > 0 {
		b.WriteString("\nКрупнейшие расходы:\n")
		for i, t := range top {
			b.WriteString(printer.Sprintf("%d. %s: %s\n", i+1, t.Category, FormatAmount(t.Amount, r.currency)))
		}
	}
	if s.Anomalies > 0 {
		b.WriteString(printer.Sprintf("\n⚠️ Пропущено нечитаемых строк: %d\n", s.Anomalies))
	}
	return b.String()
}

// Profit renders the profit block of /profit.
func (r *Reporter) Profit(s domain.FinancialStats, label string) string {
	var b strings.Builder
	b.WriteString("💰 Прибыль за " + label + ":\n")
	b.WriteString("• Доходы: " + FormatAmount(s.TotalIncome, r.currency) + "\n")
	b.WriteString("• Расходы: " + FormatAmount(s.TotalExpense, r.currency) + "\n")
	b.WriteString("• Прибыль: " + FormatAmount(s.Profit, r.currency) + "\n")
	b.WriteString("• Рентабельность: " + FormatPercent(stats.ProfitMargin(s)) + "\n")
	return b.String()
}

// Top renders the n largest expense categories.
func (r *Reporter) Top(s domain.FinancialStats, label string, n int) string {
	top := stats.TopCategories(s.ExpenseByCategory, n)
	if len(top) == 0 {
		return "📉 Нет расходов за " + label + "."
	}
	var b strings.Builder
	b.WriteString("📉 Топ расходов за " + label + ":\n")
	for i, t := range top {
		share := 0.0
		if s.TotalExpense > 0 {
			share = t.Amount / s.TotalExpense * 100
		}
		b.WriteString(printer.Sprintf("%d. %s: %s (%s)\n", i+1, t.Category, FormatAmount(t.Amount, r.currency), FormatPercent(share)))
	}
	return b.String()
}

// Narrative prepends the totals to a model-written analysis. When the model
// is unavailable the basic report is returned with a hint and ok is false.
func (r *Reporter) Narrative(ctx context.Context, s domain.FinancialStats, label string) (text string, ok bool) {
	if r.llm == nil {
		return r.Basic(s, label) + "\n" + narrativeFallbackHint, false
	}
	analysis, err := r.llm.Complete(ctx, buildNarrativePrompt(s, label, r.currency), narrativeTemperature, narrativeMaxTokens)
	if err != nil || strings.TrimSpace(analysis) == "" {
		r.log.Warn().Err(err).Str("period", label).Msg("narrative report failed, using basic report")
		return r.Basic(s, label) + "\n" + narrativeFallbackHint, false
	}

	var b strings.Builder
	b.WriteString("📊 Финансовый отчет за " + label + ":\n\n")
	r.writeTotals(&b, s)
	b.WriteString("\n" + strings.TrimSpace(analysis) + "\n")
	return b.String(), true
}

// Insights asks for advice based on the last records. Records are expected
// in insertion order; only the latest ones are considered.
func (r *Reporter) Insights(ctx context.Context, records []domain.TransactionRecord) string {
	if len(records) == 0 {
		return NoDataMessage
	}
	if len(records) > insightsWindow {
		records = records[len(records)-insightsWindow:]
	}

	income := map[string]float64{}
	expense := map[string]float64{}
	for _, rec := range records {
		category := rec.Category
		if category == "" {
			category = domain.DefaultCategory
		}
		if rec.Kind == domain.Income {
			income[category] += rec.Amount
		} else {
			expense[category] += rec.Amount
		}
	}

	if r.llm == nil {
		return InsightsUnavailable
	}
	prompt := buildInsightsPrompt(stats.TopCategories(income, insightsTopN), stats.TopCategories(expense, insightsTopN), r.currency)
	out, err := r.llm.Complete(ctx, prompt, insightsTemperature, insightsMaxTokens)
	if err != nil || strings.TrimSpace(out) == "" {
		r.log.Warn().Err(err).Msg("insights failed")
		return InsightsUnavailable
	}
	return strings.TrimSpace(out)
}

func (r *Reporter) writeTotals(b *strings.Builder, s domain.FinancialStats) {
	b.WriteString("• 💰 Доходы: " + FormatAmount(s.TotalIncome, r.currency) + "\n")
	b.WriteString("• 💸 Расходы: " + FormatAmount(s.TotalExpense, r.currency) + "\n")
	b.WriteString("• 📈 Прибыль: " + FormatAmount(s.Profit, r.currency) + "\n")
	b.WriteString("• 📊 Рентабельность: " + FormatPercent(stats.ProfitMargin(s)) + "\n")
	b.WriteString(printer.Sprintf("• 🔢 Операций: %d\n", s.TransactionsCount))
}
