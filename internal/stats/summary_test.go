package stats

import (
	"reflect"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fincopilot/internal/domain"
)

func TestTopCategories(t *testing.T) {
	by := map[string]float64{"a": 10, "b": 30, "c": 20, "d": 30, "e": 1}

	got := TopCategories(by, 3)
	want := []CategoryTotal{{"b", 30}, {"d", 30}, {"c", 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopCategories = %v, want %v", got, want)
	}

	if all := TopCategories(by, 0); len(all) != 5 {
		t.Errorf("n=0 kept %d entries, want 5", len(all))
	}
	if empty := TopCategories(nil, 5); len(empty) != 0 {
		t.Errorf("nil map gave %v", empty)
	}
}

func TestProfitMargin(t *testing.T) {
	s := domain.FinancialStats{TotalIncome: 2000, TotalExpense: 500, Profit: 1500}
	if got := ProfitMargin(s); got != 75 {
		t.Errorf("ProfitMargin = %v, want 75", got)
	}
	if got := ProfitMargin(domain.ZeroStats()); got != 0 {
		t.Errorf("ProfitMargin without income = %v, want 0", got)
	}
}

func TestPeriodFor(t *testing.T) {
	// 2024-03-14 is a Thursday.
	today := civil.Date{Year: 2024, Month: 3, Day: 14}

	tests := []struct {
		window    string
		wantStart string
		wantEnd   string
	}{
		{window: WindowDay, wantStart: "2024-03-14", wantEnd: "2024-03-14"},
		{window: WindowWeek, wantStart: "2024-03-11", wantEnd: "2024-03-14"},
		{window: WindowMonth, wantStart: "2024-03-01", wantEnd: "2024-03-14"},
		{window: "", wantStart: "2024-03-01", wantEnd: "2024-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.window, func(t *testing.T) {
			p, err := PeriodFor(tt.window, today)
			if err != nil {
				t.Fatalf("PeriodFor: %v", err)
			}
			if p.Start.String() != tt.wantStart || p.End.String() != tt.wantEnd {
				t.Errorf("got %s, want %s..%s", p, tt.wantStart, tt.wantEnd)
			}
		})
	}

	all, err := PeriodFor(WindowAll, today)
	if err != nil || all.Start != nil || all.End != nil {
		t.Errorf("all: %v %v", all, err)
	}
	if _, err := PeriodFor("fortnight", today); err == nil {
		t.Error("expected error for unknown window")
	}
}

func TestPeriodFor_WeekStartsOnMonday(t *testing.T) {
	monday := civil.Date{Year: 2024, Month: 3, Day: 11}
	sunday := civil.Date{Year: 2024, Month: 3, Day: 17}

	if p, _ := PeriodFor(WindowWeek, monday); *p.Start != monday {
		t.Errorf("monday week starts %s", p.Start)
	}
	if p, _ := PeriodFor(WindowWeek, sunday); *p.Start != monday {
		t.Errorf("sunday week starts %s", p.Start)
	}
}

func TestBudgetWindow(t *testing.T) {
	today := civil.Date{Year: 2024, Month: 3, Day: 14}
	if p := BudgetWindow(domain.Daily, today); p.Start.String() != "2024-03-14" {
		t.Errorf("daily = %s", p)
	}
	if p := BudgetWindow(domain.Monthly, today); p.Start.String() != "2024-03-01" {
		t.Errorf("monthly = %s", p)
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	if p.String() != "2024-01-01..2024-01-31" {
		t.Errorf("period = %s", p)
	}

	open, err := ParsePeriod("", "2024-01-31")
	if err != nil || open.Start != nil {
		t.Errorf("open start: %v %v", open, err)
	}

	for _, bad := range [][2]string{{"2024-13-01", ""}, {"", "yesterday"}, {"2024-02-01", "2024-01-01"}} {
		if _, err := ParsePeriod(bad[0], bad[1]); err == nil {
			t.Errorf("ParsePeriod(%q, %q) expected error", bad[0], bad[1])
		}
	}
}
