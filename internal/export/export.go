// Package export writes a period's transactions as CSV to a local file or
// to Cloud Storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/gcsuploader"
	"github.com/dvloznov/fincopilot/internal/store"
)

const csvContentType = "text/csv; charset=utf-8"

// RecordLister returns the records of a period in insertion order.
// *ledger.Ledger is the production implementation.
type RecordLister interface {
	List(ctx context.Context, period domain.Period) ([]domain.TransactionRecord, error)
}

// WriteCSV writes a header row and one row per record in the stored
// column order.
func WriteCSV(w io.Writer, records []domain.TransactionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(store.TransactionColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(store.EncodeRecord(rec).Values(store.TransactionColumns)); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter renders periods to CSV.
type Exporter struct {
	records RecordLister
	storage gcsuploader.ObjectStorage
	bucket  string
	prefix  string
	now     func() time.Time
	log     zerolog.Logger
}

// NewExporter creates an exporter. storage may be nil when only local
// files are written.
func NewExporter(records RecordLister, storage gcsuploader.ObjectStorage, bucket, prefix string, now func() time.Time, log zerolog.Logger) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{
		records: records,
		storage: storage,
		bucket:  bucket,
		prefix:  prefix,
		now:     now,
		log:     log,
	}
}

func (e *Exporter) render(ctx context.Context, period domain.Period) ([]byte, int, error) {
	recs, err := e.records.List(ctx, period)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, recs); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(recs), nil
}

// ToFile writes the period's records to a local file and returns how many
// records were written.
func (e *Exporter) ToFile(ctx context.Context, period domain.Period, filePath string) (int, error) {
	data, n, err := e.render(ctx, period)
	if err != nil {
		return 0, fmt.Errorf("export.ToFile: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return 0, fmt.Errorf("export.ToFile: write %q: %w", filePath, err)
	}
	e.log.Info().Str("path", filePath).Int("records", n).Str("period", period.String()).Msg("export written")
	return n, nil
}

// ToGCS uploads the period's records and returns the object URI.
func (e *Exporter) ToGCS(ctx context.Context, period domain.Period) (string, int, error) {
	if e.storage == nil || e.bucket == "" {
		return "", 0, errors.New("export.ToGCS: no export bucket configured")
	}
	data, n, err := e.render(ctx, period)
	if err != nil {
		return "", 0, fmt.Errorf("export.ToGCS: %w", err)
	}
	object := e.ObjectName(period)
	if err := e.storage.Upload(ctx, e.bucket, object, bytes.NewReader(data), csvContentType); err != nil {
		return "", 0, fmt.Errorf("export.ToGCS: %w", err)
	}
	uri := gcsuploader.URI(e.bucket, object)
	e.log.Info().Str("uri", uri).Int("records", n).Str("period", period.String()).Msg("export uploaded")
	return uri, n, nil
}

// ObjectName is prefix/transactions_<start>_<end>_<unix>.csv, with "all"
// standing in for an open bound.
func (e *Exporter) ObjectName(period domain.Period) string {
	start, end := "all", "all"
	if period.Start != nil {
		start = period.Start.String()
	}
	if period.End != nil {
		end = period.End.String()
	}
	name := fmt.Sprintf("transactions_%s_%s_%d.csv", start, end, e.now().Unix())
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}
