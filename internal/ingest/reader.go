package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Submission identifies one department's raw CSV export for a run.
type Submission struct {
	Department domain.Department
	Path       string
}

// Row is one raw record: source column header -> raw cell value.
// Line is the 1-based file line the record starts on, header included,
// so a row reference can be matched against the file in an editor.
// Records with quoted multi-line fields span several lines; Line names
// the first.
type Row struct {
	Line   int
	Values map[string]string
}

// SkippedRow records a malformed row the reader stepped over.
type SkippedRow struct {
	Line   int
	Reason string
}

// Reader streams rows from one submission. Rows are produced lazily;
// re-opening the submission re-parses from the start. A malformed row
// is skipped and recorded, not fatal; only a file that cannot be read
// as tabular text at all fails with a ParseError.
type Reader struct {
	sub     Submission
	file    *os.File
	csv     *csv.Reader
	header  []string
	skipped []SkippedRow
	logger  *slog.Logger
}

// Open opens a submission for streaming. It fails with a ParseError
// when the file is missing, unreadable, or has no header row.
func Open(sub Submission, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(sub.Path)
	if err != nil {
		return nil, apierrors.NewParseError(sub.Department, sub.Path, err)
	}

	cr := csv.NewReader(file)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			err = errors.New("empty file: missing header row")
		}
		return nil, apierrors.NewParseError(sub.Department, sub.Path, err)
	}

	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	cr.FieldsPerRecord = len(header)

	return &Reader{
		sub:    sub,
		file:   file,
		csv:    cr,
		header: header,
		logger: logger.With(slog.String("department", string(sub.Department))),
	}, nil
}

// Header returns the trimmed header row.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next well-formed row, skipping and recording
// malformed ones. It returns io.EOF when the file is exhausted.
func (r *Reader) Next() (Row, error) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			reason := parseErr.Err.Error()
			r.skipped = append(r.skipped, SkippedRow{Line: parseErr.Line, Reason: reason})
			r.logger.Warn("skipping malformed row",
				slog.Int("line", parseErr.Line),
				slog.String("reason", reason))
			continue
		}
		if err != nil {
			// Not a row problem: the file itself went bad mid-read
			return Row{}, apierrors.NewParseError(r.sub.Department, r.sub.Path, err)
		}

		line, _ := r.csv.FieldPos(0)
		values := make(map[string]string, len(r.header))
		for i, h := range r.header {
			values[h] = strings.TrimSpace(record[i])
		}
		return Row{Line: line, Values: values}, nil
	}
}

// Skipped returns the malformed rows stepped over so far.
func (r *Reader) Skipped() []SkippedRow {
	return r.skipped
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll drains a submission in one call: all well-formed rows plus
// the skipped-row report. Convenience for callers that do not need
// streaming.
func ReadAll(sub Submission, logger *slog.Logger) ([]Row, []SkippedRow, error) {
	r, err := Open(sub, logger)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	var rows []Row
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, r.Skipped(), err
		}
		rows = append(rows, row)
	}
	return rows, r.Skipped(), nil
}

// String implements fmt.Stringer for log readability.
func (s Submission) String() string {
	return fmt.Sprintf("%s (%s)", s.Department, s.Path)
}
