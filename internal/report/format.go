package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/stats"
)

var printer = message.NewPrinter(language.English)

var currencySymbols = map[string]string{
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"KZT": "₸",
	"UAH": "₴",
}

// CurrencySymbol returns the display symbol for an ISO code, or the code.
func CurrencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

// FormatAmount renders an amount with thousands separators, at most two
// decimals and the currency symbol: "1,500 ₽", "-20,000.50 $".
func FormatAmount(amount float64, currency string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()

	s := sign + printer.Sprintf("%d", whole)
	if cents != 0 {
		s += fmt.Sprintf(".%02d", cents)
	}
	if sym := CurrencySymbol(currency); sym != "" {
		s += " " + sym
	}
	return s
}

// FormatPercent renders a margin with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// PeriodLabel names a report window for headers ("за месяц"). Custom
// ranges are shown as their bounds.
func PeriodLabel(window string, p domain.Period) string {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case stats.WindowDay, "today":
		return "сегодня"
	case stats.WindowWeek:
		return "неделю"
	case stats.WindowMonth:
		return "месяц"
	case stats.WindowAll:
		return "все время"
	}
	if p == domain.AllTime {
		return "все время"
	}
	start, end := "…", "…"
	if p.Start != nil {
		start = p.Start.String()
	}
	if p.End != nil {
		end = p.End.String()
	}
	return "период " + start + " - " + end
}
