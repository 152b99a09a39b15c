package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// Store keeps transactions and budgets in two worksheets. Cells are
// written as raw strings and read back unformatted. Writes are not
// serialized: two processes appending at once both land.
type Store struct {
	client       Client
	transactions string
	budgets      string
	log          zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store over the given worksheets.
func NewStore(client Client, transactionsSheet, budgetsSheet string, log zerolog.Logger) *Store {
	return &Store{
		client:       client,
		transactions: transactionsSheet,
		budgets:      budgetsSheet,
		log:          log,
	}
}

// gridRow is a decoded data row with its position in the grid.
type gridRow struct {
	index int
	row   store.Row
}

// load reads a whole worksheet. The first row is taken as the header when
// it names the key column; otherwise the fixed column order is assumed and
// every row is data.
func (s *Store) load(ctx context.Context, sheet string, columns []string) ([]string, []gridRow, error) {
	values, err := s.client.GetValues(ctx, sheet, "A:"+columnLetter(len(columns)-1))
	if err != nil {
		return nil, nil, err
	}
	header := columns
	start := 0
	if len(values) > 0 {
		first := rowStrings(values[0])
		if hasColumn(first, columns[0]) {
			header = normalizeHeader(first)
			start = 1
		}
	}
	rows := make([]gridRow, 0, len(values)-start)
	for i := start; i < len(values); i++ {
		cells := rowStrings(values[i])
		if isBlank(cells) {
			continue
		}
		rows = append(rows, gridRow{index: i, row: store.RowFromValues(header, cells)})
	}
	return header, rows, nil
}

// Append writes one transaction row at the end of the sheet.
func (s *Store) Append(ctx context.Context, rec domain.TransactionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("sheets.Append: record ID is required")
	}
	values := store.EncodeRecord(rec).Values(store.TransactionColumns)
	if err := s.client.AppendValues(ctx, s.transactions, [][]interface{}{toCells(values)}); err != nil {
		return fmt.Errorf("sheets.Append: %w", err)
	}
	s.log.Debug().Str("uuid", rec.ID).Str("sheet", s.transactions).Msg("transaction row appended")
	return nil
}

// Read returns the rows dated inside period, in sheet order.
func (s *Store) Read(ctx context.Context, period domain.Period) ([]store.Row, error) {
	_, rows, err := s.load(ctx, s.transactions, store.TransactionColumns)
	if err != nil {
		return nil, fmt.Errorf("sheets.Read: %w", err)
	}
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		if period.Contains(r.row[store.ColDate]) {
			out = append(out, r.row)
		}
	}
	return out, nil
}

// FindByID returns the first row with the given uuid.
func (s *Store) FindByID(ctx context.Context, id string) (store.Row, error) {
	_, r, err := s.findTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sheets.FindByID: %w", err)
	}
	return r.row, nil
}

// UpdateFields rewrites the row with the given uuid after applying fields.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if err := store.ValidateUpdate(fields); err != nil {
		return fmt.Errorf("sheets.UpdateFields: %w", err)
	}
	header, r, err := s.findTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("sheets.UpdateFields: %w", err)
	}
	for k, v := range fields {
		r.row[k] = v
	}
	values := r.row.Values(header)
	if err := s.client.UpdateValues(ctx, s.transactions, rowRange(r.index, len(header)), [][]interface{}{toCells(values)}); err != nil {
		return fmt.Errorf("sheets.UpdateFields: %w", err)
	}
	return nil
}

// DeleteByID removes the row with the given uuid.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, r, err := s.findTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("sheets.DeleteByID: %w", err)
	}
	if err := s.client.DeleteRow(ctx, s.transactions, r.index); err != nil {
		return fmt.Errorf("sheets.DeleteByID: %w", err)
	}
	return nil
}

func (s *Store) findTransaction(ctx context.Context, id string) ([]string, gridRow, error) {
	header, rows, err := s.load(ctx, s.transactions, store.TransactionColumns)
	if err != nil {
		return nil, gridRow{}, err
	}
	id = strings.TrimSpace(id)
	for _, r := range rows {
		if strings.TrimSpace(r.row[store.ColUUID]) == id {
			return header, r, nil
		}
	}
	return nil, gridRow{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

// ListBudgets returns the owner's budget rows in sheet order.
func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]store.Row, error) {
	_, rows, err := s.load(ctx, s.budgets, store.BudgetColumns)
	if err != nil {
		return nil, fmt.Errorf("sheets.ListBudgets: %w", err)
	}
	var out []store.Row
	for _, r := range rows {
		if strings.TrimSpace(r.row[store.ColUserID]) == ownerID {
			out = append(out, r.row)
		}
	}
	return out, nil
}

// AppendBudget writes a new budget row.
func (s *Store) AppendBudget(ctx context.Context, b domain.BudgetEntry) error {
	values := store.EncodeBudget(b).Values(store.BudgetColumns)
	if err := s.client.AppendValues(ctx, s.budgets, [][]interface{}{toCells(values)}); err != nil {
		return fmt.Errorf("sheets.AppendBudget: %w", err)
	}
	return nil
}

// UpdateBudget overwrites amount and updated_at of the first row with b's key.
func (s *Store) UpdateBudget(ctx context.Context, b domain.BudgetEntry) error {
	header, rows, err := s.load(ctx, s.budgets, store.BudgetColumns)
	if err != nil {
		return fmt.Errorf("sheets.UpdateBudget: %w", err)
	}
	enc := store.EncodeBudget(b)
	for _, r := range rows {
		if !store.SameBudgetKey(r.row, b.OwnerID, b.Category, b.Period) {
			continue
		}
		r.row[store.ColAmount] = enc[store.ColAmount]
		r.row[store.ColUpdatedAt] = enc[store.ColUpdatedAt]
		values := r.row.Values(header)
		if err := s.client.UpdateValues(ctx, s.budgets, rowRange(r.index, len(header)), [][]interface{}{toCells(values)}); err != nil {
			return fmt.Errorf("sheets.UpdateBudget: %w", err)
		}
		return nil
	}
	return fmt.Errorf("sheets.UpdateBudget: budget %s: %w", b.Key(), store.ErrNotFound)
}

// DeleteBudget removes every row with the given key, bottom-up so the
// remaining indexes stay valid.
func (s *Store) DeleteBudget(ctx context.Context, ownerID, category string, period domain.BudgetPeriod) error {
	_, rows, err := s.load(ctx, s.budgets, store.BudgetColumns)
	if err != nil {
		return fmt.Errorf("sheets.DeleteBudget: %w", err)
	}
	removed := 0
	for i := len(rows) - 1; i >= 0; i-- {
		if !store.SameBudgetKey(rows[i].row, ownerID, category, period) {
			continue
		}
		if err := s.client.DeleteRow(ctx, s.budgets, rows[i].index); err != nil {
			return fmt.Errorf("sheets.DeleteBudget: %w", err)
		}
		removed++
	}
	if removed == 0 {
		return fmt.Errorf("sheets.DeleteBudget: budget %s|%s|%s: %w", ownerID, category, period, store.ErrNotFound)
	}
	return nil
}

// EnsureSchema creates missing worksheets and writes the header rows when
// they are absent or differ from the expected columns.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, t := range []struct {
		sheet   string
		columns []string
	}{
		{s.transactions, store.TransactionColumns},
		{s.budgets, store.BudgetColumns},
	} {
		if err := s.client.EnsureSheet(ctx, t.sheet); err != nil {
			return fmt.Errorf("sheets.EnsureSchema: %w", err)
		}
		a1 := rowRange(0, len(t.columns))
		values, err := s.client.GetValues(ctx, t.sheet, a1)
		if err != nil {
			return fmt.Errorf("sheets.EnsureSchema: %w", err)
		}
		if len(values) > 0 && equalHeader(rowStrings(values[0]), t.columns) {
			continue
		}
		if err := s.client.UpdateValues(ctx, t.sheet, a1, [][]interface{}{toCells(t.columns)}); err != nil {
			return fmt.Errorf("sheets.EnsureSchema: %w", err)
		}
		s.log.Info().Str("sheet", t.sheet).Msg("header row written")
	}
	return nil
}

// Close is a no-op; the Sheets service holds no connection.
func (s *Store) Close() error { return nil }

func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

func hasColumn(cells []string, name string) bool {
	for _, c := range cells {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

func equalHeader(cells, columns []string) bool {
	if len(cells) != len(columns) {
		return false
	}
	for i := range columns {
		if !strings.EqualFold(strings.TrimSpace(cells[i]), columns[i]) {
			return false
		}
	}
	return true
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
