package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

func record(id string, day int, amount float64) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:         id,
		OccurredOn: civil.Date{Year: 2024, Month: 1, Day: day},
		Kind:       domain.Expense,
		Category:   "аренда",
		Amount:     amount,
		Currency:   "RUB",
	}
}

func TestStore_TransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, record(id, 10+i, float64(100*(i+1)))); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}

	rows, err := s.Read(ctx, domain.Between(civil.Date{Year: 2024, Month: 1, Day: 11}, civil.Date{Year: 2024, Month: 1, Day: 12}))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 || rows[0][store.ColUUID] != "b" || rows[1][store.ColUUID] != "c" {
		t.Errorf("Read returned %v", rows)
	}

	if err := s.UpdateFields(ctx, "b", map[string]string{store.ColAmount: "250"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	row, err := s.FindByID(ctx, "b")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if row[store.ColAmount] != "250" {
		t.Errorf("amount = %q, want 250", row[store.ColAmount])
	}

	// Returned rows are copies.
	row[store.ColAmount] = "999"
	again, _ := s.FindByID(ctx, "b")
	if again[store.ColAmount] != "250" {
		t.Error("FindByID leaked internal row")
	}

	if err := s.DeleteByID(ctx, "a"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, err := s.FindByID(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FindByID after delete: %v", err)
	}
	all, _ := s.Read(ctx, domain.AllTime)
	if len(all) != 2 {
		t.Errorf("rows after delete = %d, want 2", len(all))
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Append(ctx, domain.TransactionRecord{}); err == nil {
		t.Error("Append without ID: expected error")
	}
	if err := s.UpdateFields(ctx, "missing", map[string]string{store.ColAmount: "1"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateFields missing: %v", err)
	}
	if err := s.UpdateFields(ctx, "missing", map[string]string{store.ColUUID: "1"}); err == nil {
		t.Error("UpdateFields uuid: expected validation error")
	}
	if err := s.DeleteByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteByID missing: %v", err)
	}
}

func TestStore_BudgetUpsertPrimitives(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := domain.BudgetEntry{OwnerID: "u1", Category: "маркетинг", Amount: 1000, Period: domain.Monthly, CreatedAt: now, UpdatedAt: now}

	if err := s.UpdateBudget(ctx, b); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateBudget before append: %v", err)
	}
	if err := s.AppendBudget(ctx, b); err != nil {
		t.Fatalf("AppendBudget: %v", err)
	}
	if err := s.AppendBudget(ctx, domain.BudgetEntry{OwnerID: "u2", Category: "аренда", Amount: 1, Period: domain.Daily}); err != nil {
		t.Fatalf("AppendBudget: %v", err)
	}

	b.Amount = 1500
	b.UpdatedAt = now.Add(time.Hour)
	if err := s.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}

	rows, _ := s.ListBudgets(ctx, "u1")
	if len(rows) != 1 || rows[0][store.ColAmount] != "1500" {
		t.Fatalf("ListBudgets = %v", rows)
	}

	if err := s.DeleteBudget(ctx, "u1", "маркетинг", domain.Monthly); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := s.DeleteBudget(ctx, "u1", "маркетинг", domain.Monthly); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteBudget: %v", err)
	}
	if rows, _ := s.ListBudgets(ctx, "u2"); len(rows) != 1 {
		t.Errorf("other owner's budgets touched: %v", rows)
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, record(string(rune('A'+i)), 1, 1))
		}(i)
	}
	wg.Wait()

	rows, _ := s.Read(ctx, domain.AllTime)
	if len(rows) != 50 {
		t.Errorf("rows = %d, want 50", len(rows))
	}
}
