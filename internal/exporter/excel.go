package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/aggregate"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

const (
	sheetTransactions = "Transactions"
	sheetSummary      = "Summary"
)

// ExcelWriter renders a consolidated dataset as an Excel workbook for
// the dashboard's download endpoint: one sheet with the canonical
// table, one with the KPI summary.
type ExcelWriter struct {
	places int32
	logger *slog.Logger
}

// NewExcelWriter creates a workbook writer with the given amount
// precision.
func NewExcelWriter(places int32, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{
		places: places,
		logger: logger.With(slog.String("component", "excel_writer")),
	}
}

// Write renders the workbook to out.
func (w *ExcelWriter) Write(out io.Writer, ds *domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeTransactions(f, ds); err != nil {
		return err
	}
	if err := w.writeSummary(f, ds); err != nil {
		return err
	}

	// Drop the default sheet so the workbook opens on Transactions
	if idx, err := f.GetSheetIndex(sheetTransactions); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeTransactions(f *excelize.File, ds *domain.Dataset) error {
	if _, err := f.NewSheet(sheetTransactions); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetTransactions)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, tx := range ds.Transactions {
		amount, _ := tx.Amount.Round(w.places).Float64()
		row := []interface{}{
			tx.ID,
			string(tx.Department),
			tx.DateString(),
			string(tx.Type),
			tx.Category,
			amount,
			tx.VendorOrSource,
			tx.Description,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return sw.Flush()
}

func (w *ExcelWriter) writeSummary(f *excelize.File, ds *domain.Dataset) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	summary := aggregate.Summarize(ds.Transactions, aggregate.Filter{})
	toFloat := func(d decimal.Decimal) float64 {
		v, _ := d.Round(w.places).Float64()
		return v
	}

	rows := [][]interface{}{
		{"Generated", ds.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Run ID", ds.RunID},
		{"Transactions", summary.TransactionCount},
		{"Total Revenue", toFloat(summary.TotalRevenue)},
		{"Total Expenses", toFloat(summary.TotalExpenses)},
		{"Net Income", toFloat(summary.NetIncome)},
		{"Profit Margin %", toFloat(summary.ProfitMargin)},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}
