package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Headers is the canonical output column order.
var Headers = []string{
	"id",
	"department",
	"date",
	"type",
	"category",
	"amount",
	"vendor_or_source",
	"description",
}

// CSVWriter renders consolidated datasets as canonical CSV. Output
// bytes depend only on row content, so identical inputs produce
// byte-identical files.
type CSVWriter struct {
	places int32
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer emitting amounts with the given
// fixed number of decimal places.
func NewCSVWriter(places int32, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		places: places,
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// Record renders one transaction in canonical column order.
func (w *CSVWriter) Record(tx domain.Transaction) []string {
	return []string{
		tx.ID,
		string(tx.Department),
		tx.DateString(),
		string(tx.Type),
		tx.Category,
		tx.Amount.StringFixed(w.places),
		tx.VendorOrSource,
		tx.Description,
	}
}

// Write streams the dataset to out, header first.
func (w *CSVWriter) Write(out io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, tx := range ds.Transactions {
		if err := cw.Write(w.Record(tx)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal renders the dataset to a byte slice, for downloads and for
// determinism checks.
func (w *CSVWriter) Marshal(ds *domain.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDatasetAtomic replaces the master CSV wholesale: the dataset is
// written to a temporary file in the target directory and renamed over
// the destination, so a concurrent reader sees either the previous
// complete file or the new complete one. On any failure the previous
// file is left untouched.
func (w *CSVWriter) WriteDatasetAtomic(path string, ds *domain.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := w.Write(tmp, ds); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	name := tmp.Name()
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}

	w.logger.Info("master dataset written",
		slog.String("path", path),
		slog.Int("transactions", len(ds.Transactions)))
	return nil
}
