// Package sheets stores transactions and budgets in a Google spreadsheet,
// one worksheet per table with a header row.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw        = "RAW"
	renderUnformatted    = "UNFORMATTED_VALUE"
	insertRows           = "INSERT_ROWS"
	dimensionRows        = "ROWS"
	propertiesFieldsMask = "sheets.properties"
)

// Client is the subset of the Sheets API the store needs. Row indexes are
// zero-based positions in the worksheet grid (the header is row 0).
type Client interface {
	GetValues(ctx context.Context, sheet, a1 string) ([][]interface{}, error)
	AppendValues(ctx context.Context, sheet string, rows [][]interface{}) error
	UpdateValues(ctx context.Context, sheet, a1 string, rows [][]interface{}) error
	DeleteRow(ctx context.Context, sheet string, index int) error
	EnsureSheet(ctx context.Context, sheet string) error
}

// APIClient implements Client on top of the Sheets v4 service.
type APIClient struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewAPIClient creates a Sheets client authenticated with a service account
// credentials file. Extra options are appended, tests use them to point the
// client at a local server.
func NewAPIClient(ctx context.Context, spreadsheetID, credentialsFile string, opts ...option.ClientOption) (*APIClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("NewAPIClient: spreadsheet id is required")
	}
	base := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("NewAPIClient: creating sheets service: %w", err)
	}
	return &APIClient{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// GetValues reads a range as unformatted values.
func (c *APIClient) GetValues(ctx context.Context, sheet, a1 string) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeOf(sheet, a1)).
		ValueRenderOption(renderUnformatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("GetValues %s: %w", sheet, err)
	}
	return resp.Values, nil
}

// AppendValues appends rows after the last non-empty row of the sheet.
func (c *APIClient) AppendValues(ctx context.Context, sheet string, rows [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeOf(sheet, "A1"), &sheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendValues %s: %w", sheet, err)
	}
	return nil
}

// UpdateValues overwrites the cells of a range.
func (c *APIClient) UpdateValues(ctx context.Context, sheet, a1 string, rows [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rangeOf(sheet, a1), &sheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("UpdateValues %s: %w", sheet, err)
	}
	return nil
}

// DeleteRow removes one grid row and shifts the rows below it up.
func (c *APIClient) DeleteRow(ctx context.Context, sheet string, index int) error {
	sheetID, ok, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("DeleteRow: worksheet %q does not exist", sheet)
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       dimensionRows,
					StartIndex:      int64(index),
					EndIndex:        int64(index + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("DeleteRow %s[%d]: %w", sheet, index, err)
	}
	return nil
}

// EnsureSheet adds the worksheet if the spreadsheet does not have it yet.
func (c *APIClient) EnsureSheet(ctx context.Context, sheet string) error {
	_, ok, err := c.sheetID(ctx, sheet)
	if err != nil || ok {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("EnsureSheet %s: %w", sheet, err)
	}
	return nil
}

func (c *APIClient) sheetID(ctx context.Context, title string) (int64, bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields(propertiesFieldsMask).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("reading spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

// rangeOf builds an A1 range on a quoted worksheet name.
func rangeOf(sheet, a1 string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + a1
}
