package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDepartment(t *testing.T) {
	tests := []struct {
		raw    string
		want   Department
		wantOK bool
	}{
		{"Sales", DepartmentSales, true},
		{"sales", DepartmentSales, true},
		{"FINANCE", DepartmentFinance, true},
		{"Marketing", DepartmentMarketing, true},
		{"operations", DepartmentOperations, true},
		{"R&D", "", false},
		{"", "", false},
		{"Sale", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDepartment(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepartmentValid(t *testing.T) {
	for _, d := range ProcessingOrder {
		assert.True(t, d.Valid(), "%s", d)
	}
	assert.False(t, Department("R&D").Valid())
}

func TestTxTypeValid(t *testing.T) {
	assert.True(t, TypeRevenue.Valid())
	assert.True(t, TypeExpense.Valid())
	assert.False(t, TxType("transfer").Valid())
	assert.False(t, TxType("").Valid())
}

func TestTransactionBuckets(t *testing.T) {
	tx := Transaction{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, "2024-03", tx.Month())
	assert.Equal(t, "2024-03-05", tx.DateString())
}
