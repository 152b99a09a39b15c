// Package memory is an in-process store.Store used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// Store keeps transaction and budget rows in insertion order.
// It is safe for concurrent use; data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	transactions []store.Row
	budgets      []store.Row
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Append stores a copy of the encoded record. Duplicate ids are not rejected.
func (s *Store) Append(ctx context.Context, rec domain.TransactionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("memory.Append: record ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, store.EncodeRecord(rec))
	return nil
}

// AppendRow stores a raw row as-is. Tests use it to seed free-text values.
func (s *Store) AppendRow(row store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, copyRow(row))
}

// Read returns copies of the rows whose date falls in period.
func (s *Store) Read(ctx context.Context, period domain.Period) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Row, 0, len(s.transactions))
	for _, row := range s.transactions {
		if !period.Contains(row[store.ColDate]) {
			continue
		}
		result = append(result, copyRow(row))
	}
	return result, nil
}

// FindByID returns the first row with the given uuid.
func (s *Store) FindByID(ctx context.Context, id string) (store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return copyRow(s.transactions[i]), nil
	}
	return nil, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

// UpdateFields overwrites the given columns of the row with id.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if err := store.ValidateUpdate(fields); err != nil {
		return fmt.Errorf("memory.UpdateFields: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	for k, v := range fields {
		s.transactions[i][k] = v
	}
	return nil
}

// DeleteByID removes the first row with id.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, row := range s.transactions {
		if row[store.ColUUID] == id {
			return i
		}
	}
	return -1
}

// ListBudgets returns the owner's budget rows in insertion order.
func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []store.Row
	for _, row := range s.budgets {
		if row[store.ColUserID] == ownerID {
			result = append(result, copyRow(row))
		}
	}
	return result, nil
}

// AppendBudget stores a new budget row without checking for an existing key.
func (s *Store) AppendBudget(ctx context.Context, b domain.BudgetEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, store.EncodeBudget(b))
	return nil
}

// UpdateBudget overwrites amount and updated_at of the first row with b's key.
func (s *Store) UpdateBudget(ctx context.Context, b domain.BudgetEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.budgets {
		if store.SameBudgetKey(row, b.OwnerID, b.Category, b.Period) {
			enc := store.EncodeBudget(b)
			row[store.ColAmount] = enc[store.ColAmount]
			row[store.ColUpdatedAt] = enc[store.ColUpdatedAt]
			return nil
		}
	}
	return fmt.Errorf("budget %s: %w", b.Key(), store.ErrNotFound)
}

// DeleteBudget removes every row with the given key.
func (s *Store) DeleteBudget(ctx context.Context, ownerID, category string, period domain.BudgetPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.budgets[:0]
	removed := 0
	for _, row := range s.budgets {
		if store.SameBudgetKey(row, ownerID, category, period) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.budgets = kept
	if removed == 0 {
		return fmt.Errorf("budget %s|%s|%s: %w", ownerID, category, period, store.ErrNotFound)
	}
	return nil
}

// EnsureSchema is a no-op for the in-memory store.
func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func copyRow(row store.Row) store.Row {
	c := make(store.Row, len(row))
	for k, v := range row {
		c[k] = v
	}
	return c
}

// Ensure Store implements the storage collaborator.
var _ store.Store = (*Store)(nil)
