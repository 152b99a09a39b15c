package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

const (
	tableTransactions = "transactions"
	tableBudgets      = "budgets"
)

// Store keeps transactions and budgets in two BigQuery tables whose
// columns are all STRING, mirroring the spreadsheet layout.
//
// Rows written through the streaming inserter stay in the streaming
// buffer for a while; UPDATE and DELETE on such rows fail until it is
// flushed.
type Store struct {
	client  *bigquery.Client
	project string
	dataset string
	log     zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore connects to BigQuery with a shared client.
func NewStore(ctx context.Context, projectID, dataset string, log zerolog.Logger, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" || dataset == "" {
		return nil, errors.New("NewStore: project id and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return &Store{client: client, project: projectID, dataset: dataset, log: log}, nil
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) table(name string) string {
	return "`" + s.project + "." + s.dataset + "." + name + "`"
}

// Append streams one transaction row. The uuid doubles as the insert ID
// so retried inserts are deduplicated on a best-effort basis.
func (s *Store) Append(ctx context.Context, rec domain.TransactionRecord) error {
	if rec.ID == "" {
		return errors.New("bigquery.Append: record ID is required")
	}
	saver := rowSaver{row: store.EncodeRecord(rec), columns: store.TransactionColumns, insertID: rec.ID}
	if err := s.client.Dataset(s.dataset).Table(tableTransactions).Inserter().Put(ctx, saver); err != nil {
		return fmt.Errorf("bigquery.Append: inserting row: %w", err)
	}
	return nil
}

// Read returns the rows dated inside period ordered by creation time.
func (s *Store) Read(ctx context.Context, period domain.Period) ([]store.Row, error) {
	sql, params := readTransactionsQuery(s.table(tableTransactions), period)
	q := s.client.Query(sql)
	q.Parameters = params

	rows, err := readRows(ctx, q, store.TransactionColumns)
	if err != nil {
		return nil, fmt.Errorf("bigquery.Read: %w", err)
	}
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		if period.Contains(r[store.ColDate]) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByID returns the row with the given uuid.
func (s *Store) FindByID(ctx context.Context, id string) (store.Row, error) {
	q := s.client.Query(`SELECT * FROM ` + s.table(tableTransactions) + ` WHERE TRIM(uuid) = @uuid LIMIT 1`)
	q.Parameters = []bigquery.QueryParameter{{Name: "uuid", Value: strings.TrimSpace(id)}}

	rows, err := readRows(ctx, q, store.TransactionColumns)
	if err != nil {
		return nil, fmt.Errorf("bigquery.FindByID: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bigquery.FindByID: transaction %s: %w", id, store.ErrNotFound)
	}
	return rows[0], nil
}

// UpdateFields sets the given columns on the row with the given uuid.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if err := store.ValidateUpdate(fields); err != nil {
		return fmt.Errorf("bigquery.UpdateFields: %w", err)
	}
	sql, params := updateFieldsQuery(s.table(tableTransactions), id, fields)
	n, err := s.runDML(ctx, sql, params)
	if err != nil {
		return fmt.Errorf("bigquery.UpdateFields: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bigquery.UpdateFields: transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// DeleteByID removes the row with the given uuid.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	n, err := s.runDML(ctx,
		`DELETE FROM `+s.table(tableTransactions)+` WHERE TRIM(uuid) = @uuid`,
		[]bigquery.QueryParameter{{Name: "uuid", Value: strings.TrimSpace(id)}})
	if err != nil {
		return fmt.Errorf("bigquery.DeleteByID: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bigquery.DeleteByID: transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListBudgets returns the owner's budget rows ordered by creation time.
func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]store.Row, error) {
	q := s.client.Query(`SELECT * FROM ` + s.table(tableBudgets) + ` WHERE user_id = @owner ORDER BY created_at`)
	q.Parameters = []bigquery.QueryParameter{{Name: "owner", Value: ownerID}}

	rows, err := readRows(ctx, q, store.BudgetColumns)
	if err != nil {
		return nil, fmt.Errorf("bigquery.ListBudgets: %w", err)
	}
	return rows, nil
}

// AppendBudget streams a new budget row.
func (s *Store) AppendBudget(ctx context.Context, b domain.BudgetEntry) error {
	saver := rowSaver{row: store.EncodeBudget(b), columns: store.BudgetColumns}
	if err := s.client.Dataset(s.dataset).Table(tableBudgets).Inserter().Put(ctx, saver); err != nil {
		return fmt.Errorf("bigquery.AppendBudget: inserting row: %w", err)
	}
	return nil
}

// UpdateBudget overwrites amount and updated_at of the rows with b's key.
func (s *Store) UpdateBudget(ctx context.Context, b domain.BudgetEntry) error {
	enc := store.EncodeBudget(b)
	params := append(budgetKeyParams(b.OwnerID, b.Category, b.Period),
		bigquery.QueryParameter{Name: "amount", Value: enc[store.ColAmount]},
		bigquery.QueryParameter{Name: "updated_at", Value: enc[store.ColUpdatedAt]},
	)
	n, err := s.runDML(ctx,
		`UPDATE `+s.table(tableBudgets)+` SET amount = @amount, updated_at = @updated_at WHERE `+budgetKeyClause,
		params)
	if err != nil {
		return fmt.Errorf("bigquery.UpdateBudget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bigquery.UpdateBudget: budget %s: %w", b.Key(), store.ErrNotFound)
	}
	return nil
}

// DeleteBudget removes every row with the given key.
func (s *Store) DeleteBudget(ctx context.Context, ownerID, category string, period domain.BudgetPeriod) error {
	n, err := s.runDML(ctx,
		`DELETE FROM `+s.table(tableBudgets)+` WHERE `+budgetKeyClause,
		budgetKeyParams(ownerID, category, period))
	if err != nil {
		return fmt.Errorf("bigquery.DeleteBudget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bigquery.DeleteBudget: budget %s|%s|%s: %w", ownerID, category, period, store.ErrNotFound)
	}
	return nil
}

// EnsureSchema creates the dataset and both tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ds := s.client.Dataset(s.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("bigquery.EnsureSchema: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("bigquery.EnsureSchema: creating dataset: %w", err)
		}
		s.log.Info().Str("dataset", s.dataset).Msg("dataset created")
	}

	for name, columns := range map[string][]string{
		tableTransactions: store.TransactionColumns,
		tableBudgets:      store.BudgetColumns,
	} {
		t := ds.Table(name)
		if _, err := t.Metadata(ctx); err == nil {
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("bigquery.EnsureSchema: table %s metadata: %w", name, err)
		}
		if err := t.Create(ctx, &bigquery.TableMetadata{Schema: stringSchema(columns)}); err != nil {
			return fmt.Errorf("bigquery.EnsureSchema: creating table %s: %w", name, err)
		}
		s.log.Info().Str("table", name).Msg("table created")
	}
	return nil
}

// runDML executes a DML statement and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := s.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

func readRows(ctx context.Context, q *bigquery.Query, columns []string) ([]store.Row, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}
	var rows []store.Row
	for {
		var m map[string]bigquery.Value
		err := it.Next(&m)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, rowFromValues(m, columns))
	}
	return rows, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
