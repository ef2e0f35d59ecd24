package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelWriter_Write(t *testing.T) {
	w := NewExcelWriter(2, nil)
	ds := sampleDataset()

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, ds))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{sheetTransactions, sheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(sheetTransactions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "S-001", rows[1][0])
	assert.Equal(t, "Sales", rows[1][1])
	assert.Equal(t, "2024-03-15", rows[1][2])

	summary, err := f.GetRows(sheetSummary)
	require.NoError(t, err)
	labels := make([]string, 0, len(summary))
	for _, row := range summary {
		require.NotEmpty(t, row)
		labels = append(labels, row[0])
	}
	assert.Contains(t, labels, "Total Revenue")
	assert.Contains(t, labels, "Net Income")
}
