package report

import (
	"strings"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/stats"
)

func buildNarrativePrompt(s domain.FinancialStats, label, currency string) string {
	var b strings.Builder
	b.WriteString("Ты финансовый аналитик. На основе данных сгенерируй краткий, но информативный отчет на русском.\n\n")
	b.WriteString("Период: " + label + "\n\n")
	b.WriteString("Основные показатели:\n")
	b.WriteString("- Общий доход: " + FormatAmount(s.TotalIncome, currency) + "\n")
	b.WriteString("- Общий расход: " + FormatAmount(s.TotalExpense, currency) + "\n")
	b.WriteString("- Прибыль: " + FormatAmount(s.Profit, currency) + "\n")
	b.WriteString("- Количество операций: " + printer.Sprintf("%d", s.TransactionsCount) + "\n\n")

	writeCategoryList(&b, "Доходы по категориям:", stats.TopCategories(s.IncomeByCategory, 0), currency, "")
	writeCategoryList(&b, "Расходы по категориям:", stats.TopCategories(s.ExpenseByCategory, 0), currency, "")

	b.WriteString("Проанализируй и предоставь:\n")
	b.WriteString("1. Общую финансовую картину (положительная или отрицательная динамика)\n")
	b.WriteString("2. Основные статьи доходов и расходов\n")
	b.WriteString("3. 1-2 конкретные рекомендации по оптимизации\n")
	b.WriteString("4. Важные тенденции или аномалии, если они есть\n\n")
	b.WriteString("Будь профессиональным, но дружелюбным. Максимум 250 слов.\n")
	return b.String()
}

func buildInsightsPrompt(income, expense []stats.CategoryTotal, currency string) string {
	var b strings.Builder
	b.WriteString("Проанализируй финансовые данные и дай 3 кратких, практичных совета для предпринимателя.\n\n")
	writeCategoryList(&b, "Основные статьи доходов:", income, currency, "Нет данных о доходах")
	writeCategoryList(&b, "Основные статьи расходов:", expense, currency, "Нет данных о расходах")
	b.WriteString("Дай конкретные рекомендации:\n")
	b.WriteString("1. По оптимизации расходов: какую категорию стоит сократить и почему\n")
	b.WriteString("2. По увеличению доходов на основе текущей структуры\n")
	b.WriteString("3. Общий финансовый совет\n\n")
	b.WriteString("Ответь на русском в деловом стиле. Максимум 150 слов.\n")
	return b.String()
}

func writeCategoryList(b *strings.Builder, title string, totals []stats.CategoryTotal, currency, empty string) {
	if len(totals) == 0 {
		if empty != "" {
			b.WriteString(title + "\n" + empty + "\n\n")
		}
		return
	}
	b.WriteString(title + "\n")
	for _, t := range totals {
		b.WriteString("- " + t.Category + ": " + FormatAmount(t.Amount, currency) + "\n")
	}
	b.WriteString("\n")
}
