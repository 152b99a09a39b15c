package domain

import (
	"fmt"
	"strings"
	"time"
)

// BudgetPeriod is the window a budget ceiling applies to.
type BudgetPeriod string

const (
	Daily   BudgetPeriod = "daily"
	Weekly  BudgetPeriod = "weekly"
	Monthly BudgetPeriod = "monthly"
)

// BudgetPeriods lists the accepted periods in display order.
var BudgetPeriods = []BudgetPeriod{Daily, Weekly, Monthly}

// ParseBudgetPeriod normalizes a period name. Russian names are accepted too.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "день", "ежедневно":
		return Daily, nil
	case "weekly", "week", "неделя", "еженедельно":
		return Weekly, nil
	case "monthly", "month", "месяц", "ежемесячно":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown budget period %q", s)
}

// BudgetEntry is a spending ceiling for one category over one period.
// At most one entry exists per (OwnerID, Category, Period).
type BudgetEntry struct {
	OwnerID   string       `json:"owner_id"`
	Category  string       `json:"category"`
	Amount    float64      `json:"amount"`
	Period    BudgetPeriod `json:"period"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Key identifies the upsert slot of the entry.
func (b BudgetEntry) Key() string {
	return b.OwnerID + "|" + b.Category + "|" + string(b.Period)
}

// BudgetStatus is the derived spend position of one budget.
type BudgetStatus struct {
	Budget    BudgetEntry `json:"budget"`
	Spent     float64     `json:"spent"`
	Remaining float64     `json:"remaining"`
	Overspent bool        `json:"overspent"`
}
