package stats

import (
	"sort"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// CategoryTotal is one line of a category ranking.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// TopCategories ranks categories by descending sum, ties by name, and keeps
// at most n entries. n <= 0 keeps all of them.
func TopCategories(byCategory map[string]float64, n int) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(byCategory))
	for c, v := range byCategory {
		out = append(out, CategoryTotal{Category: c, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ProfitMargin returns profit as a percentage of income, 0 without income.
func ProfitMargin(s domain.FinancialStats) float64 {
	if s.TotalIncome == 0 {
		return 0
	}
	return s.Profit / s.TotalIncome * 100
}
