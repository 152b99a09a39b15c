// Package budget manages spending ceilings and reports their spend position.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/stats"
	"github.com/dvloznov/fincopilot/internal/store"
)

// ErrInvalidBudget is returned by Set for a missing key part, a bad amount
// or an unknown period.
var ErrInvalidBudget = errors.New("invalid budget")

// Service sets, lists and evaluates budgets.
//
// Upserts on the same (owner, category, period) key are serialized inside
// one process. Two processes writing the same store can still race and
// leave duplicate rows; Status then reports each row separately.
type Service struct {
	budgets      store.BudgetStore
	transactions store.TransactionStore
	engine       *stats.Engine
	now          func() time.Time
	loc          *time.Location
	log          zerolog.Logger

	locks keyedMutex
}

// NewService creates a budget service.
func NewService(budgets store.BudgetStore, transactions store.TransactionStore, engine *stats.Engine, now func() time.Time, loc *time.Location, log zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		budgets:      budgets,
		transactions: transactions,
		engine:       engine,
		now:          now,
		loc:          loc,
		log:          log,
	}
}

// Set creates the budget or updates the amount of the existing entry with
// the same key. The category is stored lower-cased.
func (s *Service) Set(ctx context.Context, ownerID, category string, amount float64, period domain.BudgetPeriod) (domain.BudgetEntry, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if ownerID == "" || category == "" {
		return domain.BudgetEntry{}, fmt.Errorf("budget.Set: %w: owner and category are required", ErrInvalidBudget)
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.BudgetEntry{}, fmt.Errorf("budget.Set: %w: %v", ErrInvalidBudget, err)
	}
	if _, err := domain.ParseBudgetPeriod(string(period)); err != nil {
		return domain.BudgetEntry{}, fmt.Errorf("budget.Set: %w: %v", ErrInvalidBudget, err)
	}

	now := s.now().UTC()
	entry := domain.BudgetEntry{
		OwnerID:   ownerID,
		Category:  category,
		Amount:    amount,
		Period:    period,
		CreatedAt: now,
		UpdatedAt: now,
	}

	unlock := s.locks.Lock(entry.Key())
	defer unlock()

	rows, err := s.budgets.ListBudgets(ctx, ownerID)
	if err != nil {
		return domain.BudgetEntry{}, fmt.Errorf("budget.Set: list budgets: %w", err)
	}
	for _, row := range rows {
		if !store.SameBudgetKey(row, ownerID, category, period) {
			continue
		}
		if existing, err := store.DecodeBudget(row); err == nil && !existing.CreatedAt.IsZero() {
			entry.CreatedAt = existing.CreatedAt
		}
		if err := s.budgets.UpdateBudget(ctx, entry); err != nil {
			return domain.BudgetEntry{}, fmt.Errorf("budget.Set: update: %w", err)
		}
		s.log.Info().Str("owner", ownerID).Str("category", category).Str("period", string(period)).
			Float64("amount", amount).Msg("budget updated")
		return entry, nil
	}

	if err := s.budgets.AppendBudget(ctx, entry); err != nil {
		return domain.BudgetEntry{}, fmt.Errorf("budget.Set: append: %w", err)
	}
	s.log.Info().Str("owner", ownerID).Str("category", category).Str("period", string(period)).
		Float64("amount", amount).Msg("budget created")
	return entry, nil
}

// List returns the owner's budgets in stored order. Unreadable rows are
// skipped and logged.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error) {
	rows, err := s.budgets.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("budget.List: %w", err)
	}
	out := make([]domain.BudgetEntry, 0, len(rows))
	for _, row := range rows {
		b, err := store.DecodeBudget(row)
		if err != nil {
			s.log.Warn().Err(err).Str("owner", ownerID).Msg("skipping unreadable budget row")
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Delete removes the budget with the given key.
func (s *Service) Delete(ctx context.Context, ownerID, category string, period domain.BudgetPeriod) error {
	category = strings.ToLower(strings.TrimSpace(category))
	unlock := s.locks.Lock(domain.BudgetEntry{OwnerID: ownerID, Category: category, Period: period}.Key())
	defer unlock()

	if err := s.budgets.DeleteBudget(ctx, ownerID, category, period); err != nil {
		return fmt.Errorf("budget.Delete: %w", err)
	}
	return nil
}

// Status evaluates every budget of the owner against the expenses of its
// current window (today, this week, this month). The result keeps the
// stored budget order.
func (s *Service) Status(ctx context.Context, ownerID string) ([]domain.BudgetStatus, error) {
	budgets, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []domain.BudgetStatus{}, nil
	}

	today := civil.DateOf(s.now().In(s.loc))

	// One read covers the widest window; each period filters it again.
	widest := domain.Period{}
	for _, b := range budgets {
		w := stats.BudgetWindow(b.Period, today)
		if widest.Start == nil || w.Start.Before(*widest.Start) {
			widest = w
		}
	}
	rows, err := s.transactions.Read(ctx, widest)
	if err != nil {
		return nil, fmt.Errorf("budget.Status: read transactions: %w", err)
	}

	byPeriod := make(map[domain.BudgetPeriod]domain.FinancialStats)
	out := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, ok := byPeriod[b.Period]
		if !ok {
			st = s.engine.ComputeStats(rows, stats.BudgetWindow(b.Period, today))
			byPeriod[b.Period] = st
		}
		out = append(out, stats.ComputeBudgetStatus([]domain.BudgetEntry{b}, st)...)
	}
	return out, nil
}

// Overspent returns only the budgets whose spend exceeds the ceiling.
func (s *Service) Overspent(ctx context.Context, ownerID string) ([]domain.BudgetStatus, error) {
	all, err := s.Status(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []domain.BudgetStatus
	for _, st := range all {
		if st.Overspent {
			out = append(out, st)
		}
	}
	return out, nil
}
