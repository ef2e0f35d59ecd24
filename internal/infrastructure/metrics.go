package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// PipelineMetrics holds the consolidation pipeline instruments.
type PipelineMetrics struct {
	RowsRead    metric.Int64Counter
	RowsKept    metric.Int64Counter
	RowsDropped metric.Int64Counter
	RowsTagged  metric.Int64Counter
	RowsSkipped metric.Int64Counter
	RunsTotal   metric.Int64Counter
	RunDuration metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on the meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.RowsRead, err = meter.Int64Counter("consolidation_rows_read_total",
		metric.WithDescription("Raw rows read from department submissions")); err != nil {
		return nil, fmt.Errorf("failed to create rows_read counter: %w", err)
	}
	if m.RowsKept, err = meter.Int64Counter("consolidation_rows_kept_total",
		metric.WithDescription("Rows accepted into the consolidated dataset")); err != nil {
		return nil, fmt.Errorf("failed to create rows_kept counter: %w", err)
	}
	if m.RowsDropped, err = meter.Int64Counter("consolidation_rows_dropped_total",
		metric.WithDescription("Rows dropped for fatal validation issues")); err != nil {
		return nil, fmt.Errorf("failed to create rows_dropped counter: %w", err)
	}
	if m.RowsTagged, err = meter.Int64Counter("consolidation_rows_tagged_total",
		metric.WithDescription("Rows kept with soft validation issues")); err != nil {
		return nil, fmt.Errorf("failed to create rows_tagged counter: %w", err)
	}
	if m.RowsSkipped, err = meter.Int64Counter("consolidation_rows_skipped_total",
		metric.WithDescription("Malformed rows skipped during parsing")); err != nil {
		return nil, fmt.Errorf("failed to create rows_skipped counter: %w", err)
	}
	if m.RunsTotal, err = meter.Int64Counter("consolidation_runs_total",
		metric.WithDescription("Consolidation runs by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	if m.RunDuration, err = meter.Float64Histogram("consolidation_run_duration_seconds",
		metric.WithDescription("Wall time of a consolidation run"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return m, nil
}

// RecordSubmission records the per-department row counters for one
// processed submission.
func (m *PipelineMetrics) RecordSubmission(ctx context.Context, report domain.SubmissionReport) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("department", string(report.Department)))
	m.RowsRead.Add(ctx, int64(report.RowsRead), attrs)
	m.RowsKept.Add(ctx, int64(report.RowsKept), attrs)
	m.RowsDropped.Add(ctx, int64(report.RowsDropped), attrs)
	m.RowsTagged.Add(ctx, int64(report.RowsTagged), attrs)
	m.RowsSkipped.Add(ctx, int64(report.RowsSkipped), attrs)
}

// RecordRun records the outcome and duration of one run.
func (m *PipelineMetrics) RecordRun(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}
