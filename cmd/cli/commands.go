package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/report"
	"github.com/dvloznov/fincopilot/internal/search"
	"github.com/dvloznov/fincopilot/internal/stats"
)

// periodFlags are the shared -period / -start / -end options.
type periodFlags struct {
	window     *string
	start, end *string
}

func addPeriodFlags(fs *flag.FlagSet, defaultWindow string) periodFlags {
	return periodFlags{
		window: fs.String("period", defaultWindow, "Window: day, week, month or all"),
		start:  fs.String("start", "", "Custom range start, YYYY-MM-DD"),
		end:    fs.String("end", "", "Custom range end, YYYY-MM-DD"),
	}
}

// resolve returns the period and its report label.
func (p periodFlags) resolve(a *app.App) (domain.Period, string, error) {
	if *p.start != "" || *p.end != "" {
		period, err := stats.ParsePeriod(*p.start, *p.end)
		if err != nil {
			return domain.Period{}, "", err
		}
		return period, report.PeriodLabel("", period), nil
	}
	period, err := stats.PeriodFor(*p.window, a.Today())
	if err != nil {
		return domain.Period{}, "", err
	}
	return period, report.PeriodLabel(*p.window, period), nil
}

// fieldsFlag collects repeated -set key=value options.
type fieldsFlag map[string]string

func (f fieldsFlag) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f fieldsFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	f[strings.TrimSpace(k)] = v
	return nil
}

func textArg(fs *flag.FlagSet, text string) (string, error) {
	if text == "" {
		text = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("a statement is required: -text \"расход 500 обед\"")
	}
	return text, nil
}

func printRecord(out io.Writer, rec domain.TransactionRecord) {
	fmt.Fprintf(out, "%s  %s  %-7s %-12s %12s  %s\n",
		rec.ID, rec.OccurredOn, rec.Kind, rec.Category,
		report.FormatAmount(rec.Amount, rec.Currency), rec.Description)
}

func runParse(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	text := fs.String("text", "", "Statement to parse (or pass it as arguments)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	stmt, err := textArg(fs, *text)
	if err != nil {
		return err
	}

	state, err := a.Preview.Run(ctx, stmt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "tier: %s\n", state.Tier)
	printRecord(out, state.Record)
	return nil
}

func runAdd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	text := fs.String("text", "", "Statement to record (or pass it as arguments)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	stmt, err := textArg(fs, *text)
	if err != nil {
		return err
	}

	state, err := a.Ingest.Run(ctx, stmt)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Recorded:")
	printRecord(out, state.Record)
	return nil
}

func runReport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	pf := addPeriodFlags(fs, stats.WindowMonth)
	ai := fs.Bool("ai", false, "Add a model-written analysis")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, label, err := pf.resolve(a)
	if err != nil {
		return err
	}

	s, err := a.Stats(ctx, period)
	if err != nil {
		return err
	}
	if *ai {
		text, _ := a.Reporter.Narrative(ctx, s, label)
		fmt.Fprint(out, text)
		return nil
	}
	fmt.Fprint(out, a.Reporter.Basic(s, label))
	return nil
}

func runTop(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	pf := addPeriodFlags(fs, stats.WindowMonth)
	n := fs.Int("n", 5, "Number of categories")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, label, err := pf.resolve(a)
	if err != nil {
		return err
	}

	s, err := a.Stats(ctx, period)
	if err != nil {
		return err
	}
	fmt.Fprint(out, a.Reporter.Top(s, label, *n))
	return nil
}

func runProfit(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("profit", flag.ContinueOnError)
	pf := addPeriodFlags(fs, stats.WindowMonth)
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, label, err := pf.resolve(a)
	if err != nil {
		return err
	}

	s, err := a.Stats(ctx, period)
	if err != nil {
		return err
	}
	fmt.Fprint(out, a.Reporter.Profit(s, label))
	return nil
}

func runSearch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	q := fs.String("q", "", "Text to look for")
	limit := fs.Int("limit", 10, "Maximum records to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := a.Ledger.List(ctx, domain.AllTime)
	if err != nil {
		return err
	}
	found := search.Search(records, *q)
	if len(found) == 0 {
		fmt.Fprintln(out, "Nothing found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d records:\n", len(found))
	for _, rec := range search.Limit(found, *limit) {
		printRecord(out, rec)
	}
	return nil
}

func runEdit(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.String("id", "", "Record id")
	fields := fieldsFlag{}
	fs.Var(fields, "set", "Field to change as column=value; repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || len(fields) == 0 {
		return errors.New("usage: cli edit -id ID -set amount=700 [-set category=еда]")
	}

	rec, err := a.Ledger.Update(ctx, *id, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Updated:")
	printRecord(out, rec)
	return nil
}

func runDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "Record id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("usage: cli delete -id ID")
	}

	if err := a.Ledger.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", *id)
	return nil
}

func runBudgetSet(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("budget-set", flag.ContinueOnError)
	owner := fs.String("owner", a.Config.App.OwnerID, "Budget owner")
	category := fs.String("category", "", "Expense category")
	amount := fs.String("amount", "", "Ceiling, e.g. 15000 or \"15 000,50\"")
	periodName := fs.String("period", string(domain.Monthly), "daily, weekly or monthly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	value, err := domain.ParseAmount(*amount)
	if err != nil {
		return err
	}
	period, err := domain.ParseBudgetPeriod(*periodName)
	if err != nil {
		return err
	}

	entry, err := a.Budgets.Set(ctx, *owner, *category, value, period)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Budget %s (%s): %s\n", entry.Category, entry.Period, report.FormatAmount(entry.Amount, a.Config.App.HomeCurrency))
	return nil
}

func runBudgetList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("budget-list", flag.ContinueOnError)
	owner := fs.String("owner", a.Config.App.OwnerID, "Budget owner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	budgets, err := a.Budgets.List(ctx, *owner)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		fmt.Fprintln(out, "No budgets.")
		return nil
	}
	for _, b := range budgets {
		fmt.Fprintf(out, "%-14s %-8s %s\n", b.Category, b.Period, report.FormatAmount(b.Amount, a.Config.App.HomeCurrency))
	}
	return nil
}

func runBudgetStatus(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("budget-status", flag.ContinueOnError)
	owner := fs.String("owner", a.Config.App.OwnerID, "Budget owner")
	overspent := fs.Bool("overspent", false, "Only budgets over their ceiling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		statuses []domain.BudgetStatus
		err      error
	)
	if *overspent {
		statuses, err = a.Budgets.Overspent(ctx, *owner)
	} else {
		statuses, err = a.Budgets.Status(ctx, *owner)
	}
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No budgets to show.")
		return nil
	}

	cur := a.Config.App.HomeCurrency
	for _, st := range statuses {
		mark := "✅"
		if st.Overspent {
			mark = "🔴"
		}
		fmt.Fprintf(out, "%s %-14s %-8s spent %s of %s, left %s\n", mark, st.Budget.Category, st.Budget.Period,
			report.FormatAmount(st.Spent, cur), report.FormatAmount(st.Budget.Amount, cur), report.FormatAmount(st.Remaining, cur))
	}
	return nil
}

func runBudgetDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("budget-delete", flag.ContinueOnError)
	owner := fs.String("owner", a.Config.App.OwnerID, "Budget owner")
	category := fs.String("category", "", "Expense category")
	periodName := fs.String("period", string(domain.Monthly), "daily, weekly or monthly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, err := domain.ParseBudgetPeriod(*periodName)
	if err != nil {
		return err
	}

	if err := a.Budgets.Delete(ctx, *owner, *category, period); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted budget %s (%s)\n", strings.ToLower(*category), period)
	return nil
}

func runExport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	pf := addPeriodFlags(fs, stats.WindowAll)
	file := fs.String("out", "", "Local CSV path")
	gcs := fs.Bool("gcs", false, "Upload to the configured export bucket")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == !*gcs {
		return errors.New("usage: cli export (-out FILE | -gcs) [-period P | -start D -end D]")
	}
	period, _, err := pf.resolve(a)
	if err != nil {
		return err
	}

	if *gcs {
		uri, n, err := a.Exporter.ToGCS(ctx, period)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d records to %s\n", n, uri)
		return nil
	}
	n, err := a.Exporter.ToFile(ctx, period, *file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d records to %s\n", n, *file)
	return nil
}
