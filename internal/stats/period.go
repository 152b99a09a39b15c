package stats

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Named report windows.
const (
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
	WindowAll   = "all"
)

// PeriodFor returns the window ending today: the day itself, the ISO week
// starting Monday, the calendar month, or all time.
func PeriodFor(window string, today civil.Date) (domain.Period, error) {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case WindowDay, "today":
		return domain.Between(today, today), nil
	case WindowWeek:
		offset := (int(today.In(time.UTC).Weekday()) + 6) % 7
		return domain.Between(today.AddDays(-offset), today), nil
	case WindowMonth, "":
		start := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
		return domain.Between(start, today), nil
	case WindowAll:
		return domain.AllTime, nil
	}
	return domain.Period{}, fmt.Errorf("unknown period %q", window)
}

// BudgetWindow maps a budget period onto the report window it is checked against.
func BudgetWindow(p domain.BudgetPeriod, today civil.Date) domain.Period {
	var w string
	switch p {
	case domain.Daily:
		w = WindowDay
	case domain.Weekly:
		w = WindowWeek
	default:
		w = WindowMonth
	}
	period, _ := PeriodFor(w, today)
	return period
}

// ParsePeriod parses a custom YYYY-MM-DD range. Either side may be empty
// to leave it open; start must not be after end.
func ParsePeriod(start, end string) (domain.Period, error) {
	var p domain.Period
	if s := strings.TrimSpace(start); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return domain.Period{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", start)
		}
		p.Start = &d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return domain.Period{}, fmt.Errorf("invalid end date %q: want YYYY-MM-DD", end)
		}
		p.End = &d
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return domain.Period{}, fmt.Errorf("start date %s is after end date %s", p.Start, p.End)
	}
	return p, nil
}
