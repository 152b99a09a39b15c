package bigquery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/store"
)

// rowSaver streams a store row as a map of STRING cells.
type rowSaver struct {
	row      store.Row
	columns  []string
	insertID string
}

// Save implements bigquery.ValueSaver.
func (r rowSaver) Save() (map[string]bigquery.Value, string, error) {
	out := make(map[string]bigquery.Value, len(r.columns))
	for _, c := range r.columns {
		out[c] = r.row[c]
	}
	return out, r.insertID, nil
}

var _ bigquery.ValueSaver = rowSaver{}

// stringSchema declares every column as a NULLABLE STRING.
func stringSchema(columns []string) bigquery.Schema {
	schema := make(bigquery.Schema, len(columns))
	for i, c := range columns {
		schema[i] = &bigquery.FieldSchema{Name: c, Type: bigquery.StringFieldType}
	}
	return schema
}

// rowFromValues converts a result row to untyped cells. NULL becomes "".
func rowFromValues(m map[string]bigquery.Value, columns []string) store.Row {
	row := make(store.Row, len(columns))
	for _, c := range columns {
		row[c] = valueString(m[c])
	}
	return row
}

func valueString(v bigquery.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

func readTransactionsQuery(table string, period domain.Period) (string, []bigquery.QueryParameter) {
	var (
		where  []string
		params []bigquery.QueryParameter
	)
	if period.Start != nil {
		where = append(where, "TRIM(date) >= @start_date")
		params = append(params, bigquery.QueryParameter{Name: "start_date", Value: period.Start.String()})
	}
	if period.End != nil {
		where = append(where, "TRIM(date) <= @end_date")
		params = append(params, bigquery.QueryParameter{Name: "end_date", Value: period.End.String()})
	}
	sql := "SELECT * FROM " + table
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql + " ORDER BY created_at, uuid", params
}

// updateFieldsQuery builds the UPDATE for already validated column names.
// Columns are sorted so the statement is stable.
func updateFieldsQuery(table, id string, fields map[string]string) (string, []bigquery.QueryParameter) {
	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	params := make([]bigquery.QueryParameter, 0, len(cols)+1)
	for i, c := range cols {
		name := "v" + strconv.Itoa(i)
		sets[i] = c + " = @" + name
		params = append(params, bigquery.QueryParameter{Name: name, Value: fields[c]})
	}
	params = append(params, bigquery.QueryParameter{Name: "uuid", Value: strings.TrimSpace(id)})
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE TRIM(uuid) = @uuid", params
}

const budgetKeyClause = "user_id = @owner AND LOWER(TRIM(category)) = LOWER(@category) AND period = @period"

func budgetKeyParams(ownerID, category string, period domain.BudgetPeriod) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "owner", Value: ownerID},
		{Name: "category", Value: strings.TrimSpace(category)},
		{Name: "period", Value: string(period)},
	}
}
