package domain

// FinancialStats is an aggregate over a filtered set of stored records.
// It is computed on demand and never persisted.
type FinancialStats struct {
	TotalIncome       float64            `json:"total_income"`
	TotalExpense      float64            `json:"total_expense"`
	Profit            float64            `json:"profit"`
	TransactionsCount int                `json:"transactions_count"`
	IncomeByCategory  map[string]float64 `json:"income_by_category"`
	ExpenseByCategory map[string]float64 `json:"expense_by_category"`

	// Anomalies counts rows skipped because their kind or amount could not be read.
	Anomalies int `json:"anomalies"`
}

// ZeroStats returns the canonical empty aggregate with non-nil maps.
func ZeroStats() FinancialStats {
	return FinancialStats{
		IncomeByCategory:  map[string]float64{},
		ExpenseByCategory: map[string]float64{},
	}
}
