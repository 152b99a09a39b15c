package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/infra/memory"
)

type fixedCompleter string

func (c fixedCompleter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	return string(c), nil
}

func newTestApp() *app.App {
	cfg := config.Config{
		App:        config.AppConfig{HomeCurrency: "RUB", Source: "cli", Timezone: "UTC", OwnerID: "me"},
		Storage:    config.StorageConfig{Backend: config.BackendMemory},
		Vocabulary: domain.DefaultVocabulary(),
	}
	now := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	completer := fixedCompleter(`{"type":"expense","amount":1500,"category":"еда","description":"продукты"}`)
	return app.Assemble(cfg, zerolog.Nop(), memory.NewStore(), completer, nil, now)
}

func run(t *testing.T, a *app.App, name string, args ...string) string {
	t.Helper()
	cmd, ok := lookup(name)
	if !ok {
		t.Fatalf("unknown command %q", name)
	}
	var out bytes.Buffer
	if err := cmd.run(context.Background(), a, args, &out); err != nil {
		t.Fatalf("%s %v: %v", name, args, err)
	}
	return out.String()
}

func TestCommands_AddReportSearch(t *testing.T) {
	a := newTestApp()

	out := run(t, a, "parse", "расход", "1500", "продукты")
	if !strings.Contains(out, "tier: enriched") {
		t.Errorf("parse output = %q", out)
	}
	if recs, _ := a.Ledger.List(context.Background(), domain.AllTime); len(recs) != 0 {
		t.Fatalf("parse stored %d records", len(recs))
	}

	run(t, a, "add", "-text", "расход 1500 продукты")

	if out := run(t, a, "report"); !strings.Contains(out, "1,500 ₽") {
		t.Errorf("report output = %q", out)
	}
	if out := run(t, a, "top", "-n", "1"); !strings.Contains(out, "1. еда") {
		t.Errorf("top output = %q", out)
	}
	if out := run(t, a, "profit", "-period", "all"); !strings.Contains(out, "-1,500 ₽") {
		t.Errorf("profit output = %q", out)
	}
	if out := run(t, a, "search", "-q", "ПРОДУКТ"); !strings.Contains(out, "Found 1 records") {
		t.Errorf("search output = %q", out)
	}
	if out := run(t, a, "search", "-q", "такси"); !strings.Contains(out, "Nothing found") {
		t.Errorf("search output = %q", out)
	}
}

func TestCommands_EditDelete(t *testing.T) {
	a := newTestApp()
	run(t, a, "add", "расход 1500 продукты")
	recs, _ := a.Ledger.List(context.Background(), domain.AllTime)
	id := recs[0].ID

	out := run(t, a, "edit", "-id", id, "-set", "amount=2 000", "-set", "category=Дом")
	if !strings.Contains(out, "2,000 ₽") || !strings.Contains(out, "дом") {
		t.Errorf("edit output = %q", out)
	}

	run(t, a, "delete", "-id", id)
	if recs, _ := a.Ledger.List(context.Background(), domain.AllTime); len(recs) != 0 {
		t.Errorf("records after delete = %d", len(recs))
	}

	cmd, _ := lookup("edit")
	if err := cmd.run(context.Background(), a, []string{"-id", id}, &bytes.Buffer{}); err == nil {
		t.Error("edit without -set should fail")
	}
}

func TestCommands_Budgets(t *testing.T) {
	a := newTestApp()
	run(t, a, "add", "расход 1500 продукты")

	run(t, a, "budget-set", "-category", "Еда", "-amount", "1 000", "-period", "месяц")
	if out := run(t, a, "budget-list"); !strings.Contains(out, "еда") || !strings.Contains(out, "monthly") {
		t.Errorf("budget-list output = %q", out)
	}
	out := run(t, a, "budget-status", "-overspent")
	if !strings.Contains(out, "🔴") || !strings.Contains(out, "left -500 ₽") {
		t.Errorf("budget-status output = %q", out)
	}

	run(t, a, "budget-delete", "-category", "еда", "-period", "monthly")
	if out := run(t, a, "budget-status"); !strings.Contains(out, "No budgets") {
		t.Errorf("budget-status after delete = %q", out)
	}
}

func TestCommands_Export(t *testing.T) {
	a := newTestApp()
	run(t, a, "add", "расход 1500 продукты")

	path := filepath.Join(t.TempDir(), "out.csv")
	if out := run(t, a, "export", "-out", path); !strings.Contains(out, "Exported 1 records") {
		t.Errorf("export output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("csv has %d lines, want 2", lines)
	}

	cmd, _ := lookup("export")
	if err := cmd.run(context.Background(), a, nil, &bytes.Buffer{}); err == nil {
		t.Error("export without a target should fail")
	}
}

func TestFieldsFlag(t *testing.T) {
	f := fieldsFlag{}
	if err := f.Set("amount=1=2"); err != nil {
		t.Fatal(err)
	}
	if f["amount"] != "1=2" {
		t.Errorf("value = %q, want 1=2", f["amount"])
	}
	if err := f.Set("novalue"); err == nil {
		t.Error("expected error for missing '='")
	}
}
