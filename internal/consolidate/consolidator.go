package consolidate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/exporter"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/infrastructure"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/ingest"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/normalize"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/validate"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// entry tracks one kept row with its read sequence, which breaks
// ordering ties and resolves id collisions by processing order.
type entry struct {
	tx     domain.Transaction
	seq    int
	issues []domain.ValidationIssue
}

// Consolidator runs the full parse -> normalize -> validate -> merge
// pipeline over the four department submissions and publishes the
// result atomically.
type Consolidator struct {
	cfg        *config.Config
	normalizer *normalize.Normalizer
	validator  *validate.Validator
	writer     *exporter.CSVWriter
	store      *Store
	metrics    *infrastructure.PipelineMetrics
	logger     *slog.Logger
}

// New wires a Consolidator. metrics may be nil (the CLI runs without a
// meter provider).
func New(cfg *config.Config, store *Store, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	normalizer := normalize.New(cfg, logger)
	return &Consolidator{
		cfg:        cfg,
		normalizer: normalizer,
		validator:  validate.New(cfg, normalizer.Categories(), logger),
		writer:     exporter.NewCSVWriter(cfg.Pipeline.DecimalPlaces, logger),
		store:      store,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "consolidator")),
	}
}

// Store returns the snapshot store this consolidator publishes to.
func (c *Consolidator) Store() *Store {
	return c.store
}

// Run executes one consolidation run. Submissions are processed
// sequentially in the fixed order Sales, Marketing, Operations,
// Finance; the order is significant for deduplication. On success the
// new dataset replaces the previous one in memory and on disk in one
// step each; on failure both are left untouched and a
// ConsolidationError is returned.
func (c *Consolidator) Run(ctx context.Context) (*domain.Dataset, error) {
	started := time.Now()
	if !c.store.tryBegin(started) {
		return nil, apierrors.ErrRunBusy()
	}

	ds, err := c.run(ctx, started)
	c.metrics.RecordRun(ctx, time.Since(started), err)
	if err != nil {
		c.store.fail(err)
		c.logger.Error("consolidation run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(started)))
		return nil, err
	}

	c.store.publish(ds)
	c.logger.Info("consolidation run published",
		slog.String("run_id", ds.RunID),
		slog.Int("transactions", len(ds.Transactions)),
		slog.Int("dropped", len(ds.Dropped)),
		slog.Int("soft_issues", len(ds.SoftIssues)),
		slog.Duration("duration", time.Since(started)))
	return ds, nil
}

func (c *Consolidator) run(ctx context.Context, started time.Time) (*domain.Dataset, error) {
	ds := &domain.Dataset{
		RunID:       uuid.NewString(),
		GeneratedAt: started.UTC(),
	}

	// id -> latest occurrence; later processing order overwrites
	byID := make(map[string]*entry)
	seq := 0
	failures := 0

	for _, dept := range domain.ProcessingOrder {
		if err := ctx.Err(); err != nil {
			return nil, apierrors.NewConsolidationError("run cancelled", err)
		}

		sub := ingest.Submission{Department: dept, Path: c.cfg.SubmissionPath(dept)}
		report := c.processSubmission(sub, byID, &seq, ds)
		if report.Failed() {
			failures++
		}
		ds.Submissions = append(ds.Submissions, report)
		c.metrics.RecordSubmission(ctx, report)
	}

	if failures == len(domain.ProcessingOrder) {
		return nil, apierrors.NewConsolidationError("no submission could be read", nil)
	}

	ds.Transactions = orderedTransactions(byID)

	// Persist before publishing: a write failure aborts the run and
	// the previous master CSV survives untouched.
	if err := c.writer.WriteDatasetAtomic(c.cfg.OutputPath(), ds); err != nil {
		return nil, apierrors.NewConsolidationError("failed to write master dataset", err)
	}

	return ds, nil
}

// rowSource abstracts the streaming reader for one submission.
type rowSource interface {
	Next() (ingest.Row, error)
	Skipped() []ingest.SkippedRow
}

// processSubmission feeds one department's file through the pipeline.
// A ParseError, at open or mid-read, is fatal for the whole
// submission: none of its rows reach the dataset, the report carries
// the error, and the run proceeds with the remaining departments.
func (c *Consolidator) processSubmission(sub ingest.Submission, byID map[string]*entry, seq *int, ds *domain.Dataset) domain.SubmissionReport {
	reader, err := ingest.Open(sub, c.logger)
	if err != nil {
		c.logger.Error("submission unreadable, proceeding without it",
			slog.String("department", string(sub.Department)),
			slog.String("path", sub.Path),
			slog.String("error", err.Error()))
		return domain.SubmissionReport{Department: sub.Department, File: sub.Path, Error: err.Error()}
	}
	defer reader.Close()

	return c.consumeSubmission(sub, reader, byID, seq, ds)
}

// consumeSubmission folds one submission's rows. Kept rows and issues
// are buffered locally and contribute to the dataset only after the
// whole file reads cleanly, so a mid-file failure cannot leave a
// submission half merged.
func (c *Consolidator) consumeSubmission(sub ingest.Submission, src rowSource, byID map[string]*entry, seq *int, ds *domain.Dataset) domain.SubmissionReport {
	report := domain.SubmissionReport{Department: sub.Department, File: sub.Path}

	var (
		kept    []*entry
		dropped []domain.ValidationIssue
		soft    []domain.ValidationIssue
	)

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Error = err.Error()
			report.RowsKept = 0
			report.RowsSkipped = len(src.Skipped())
			c.logger.Error("submission failed mid-read, discarding its rows",
				slog.String("department", string(sub.Department)),
				slog.Int("rows_discarded", len(kept)),
				slog.String("error", err.Error()))
			return report
		}
		report.RowsRead++

		tx, err := c.normalizer.Normalize(sub, row)
		if err != nil {
			var coercionErr *apierrors.CoercionError
			if errors.As(err, &coercionErr) {
				report.RowsDropped++
				dropped = append(dropped, domain.ValidationIssue{
					Row:    coercionErr.Row,
					Field:  coercionErr.Field,
					Code:   domain.IssueCoercionFailed,
					Detail: coercionErr.Reason,
				})
				c.logger.Warn("row dropped: coercion failed",
					slog.String("row", coercionErr.Row.String()),
					slog.String("field", coercionErr.Field),
					slog.String("reason", coercionErr.Reason))
				continue
			}
			report.Error = err.Error()
			report.RowsKept = 0
			report.RowsSkipped = len(src.Skipped())
			return report
		}

		ref := domain.RowRef{Department: sub.Department, Line: row.Line}
		result := c.validator.Validate(tx, ref)
		if result.Fatal() {
			report.RowsDropped++
			dropped = append(dropped, result.Issues...)
			continue
		}

		if result.Tagged() {
			report.RowsTagged++
			soft = append(soft, result.Issues...)
		}
		kept = append(kept, &entry{tx: result.Transaction, issues: result.Issues})
	}

	for _, e := range kept {
		*seq++
		e.seq = *seq
		if prev, dup := byID[e.tx.ID]; dup {
			c.logger.Debug("duplicate id, later submission wins",
				slog.String("id", e.tx.ID),
				slog.String("previous", string(prev.tx.Department)),
				slog.String("replacement", string(e.tx.Department)))
		}
		byID[e.tx.ID] = e
	}
	ds.Dropped = append(ds.Dropped, dropped...)
	ds.SoftIssues = append(ds.SoftIssues, soft...)

	report.RowsSkipped = len(src.Skipped())
	report.RowsKept = report.RowsRead - report.RowsDropped

	return report
}

// orderedTransactions flattens the dedup map into the canonical order:
// date ascending, ties broken by department name, then original read
// order. Deterministic given identical inputs.
func orderedTransactions(byID map[string]*entry) []domain.Transaction {
	entries := make([]*entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.tx.Date.Equal(b.tx.Date) {
			return a.tx.Date.Before(b.tx.Date)
		}
		if a.tx.Department != b.tx.Department {
			return a.tx.Department < b.tx.Department
		}
		return a.seq < b.seq
	})

	txs := make([]domain.Transaction, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}
	return txs
}
