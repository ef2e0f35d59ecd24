package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/ingest"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	cfg := &config.Config{}
	cfg.Pipeline.RevenueCategories = config.DefaultRevenueCategories()
	cfg.Pipeline.ExpenseCategories = config.DefaultExpenseCategories()
	cfg.Pipeline.Aliases = config.DefaultAliases()
	return New(cfg, nil)
}

func salesRow(line int, values map[string]string) (ingest.Submission, ingest.Row) {
	sub := ingest.Submission{Department: domain.DepartmentSales, Path: "sales_export.csv"}
	return sub, ingest.Row{Line: line, Values: values}
}

func TestNormalize_SalesAliases(t *testing.T) {
	n := testNormalizer(t)
	sub, row := salesRow(2, map[string]string{
		"Transaction ID": "S-001",
		"Department":     "Sales",
		"Date":           "2024-03-15",
		"Type":           "Revenue",
		"Category":       "Product Sales",
		"Amount":         "1200.50",
		"Client":         "Acme Corp",
		"Notes":          "Q1 bulk order",
	})

	tx, err := n.Normalize(sub, row)
	require.NoError(t, err)

	assert.Equal(t, "S-001", tx.ID)
	assert.Equal(t, domain.DepartmentSales, tx.Department)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.Equal(t, domain.TypeRevenue, tx.Type)
	assert.Equal(t, "Product Sales", tx.Category)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, "Acme Corp", tx.VendorOrSource)
	assert.Equal(t, "Q1 bulk order", tx.Description)
}

func TestNormalize_MarketingAliases(t *testing.T) {
	n := testNormalizer(t)
	sub := ingest.Submission{Department: domain.DepartmentMarketing}
	row := ingest.Row{Line: 5, Values: map[string]string{
		"ID":              "M-010",
		"Dept":            "Marketing",
		"Txn Date":        "03/20/2024",
		"Revenue/Expense": "Expense",
		"Spend Category":  "ads",
		"Cost (USD)":      "$3,400.00",
		"Vendor":          "AdWords",
		"Campaign Notes":  "Spring push",
	}}

	tx, err := n.Normalize(sub, row)
	require.NoError(t, err)

	assert.Equal(t, "M-010", tx.ID)
	assert.Equal(t, domain.DepartmentMarketing, tx.Department)
	assert.Equal(t, domain.TypeExpense, tx.Type)
	assert.Equal(t, "Advertising", tx.Category)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("3400")))
}

func TestNormalize_DateFormats(t *testing.T) {
	n := testNormalizer(t)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{"iso", "2024-03-05"},
		{"iso slashes", "2024/03/05"},
		{"us padded", "03/05/2024"},
		{"us bare", "3/5/2024"},
		{"day month year", "05-Mar-2024"},
		{"short month name", "Mar 5, 2024"},
		{"long month name", "March 5, 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, row := salesRow(2, map[string]string{
				"Transaction ID": "S-001",
				"Date":           tt.raw,
				"Type":           "Revenue",
				"Category":       "Consulting",
				"Amount":         "10",
			})

			tx, err := n.Normalize(sub, row)
			require.NoError(t, err)
			assert.True(t, tx.Date.Equal(want), "got %s", tx.Date)
		})
	}
}

func TestNormalize_TypeSynonyms(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		raw  string
		want domain.TxType
	}{
		{"Revenue", domain.TypeRevenue},
		{"rev", domain.TypeRevenue},
		{"INCOME", domain.TypeRevenue},
		{"credit", domain.TypeRevenue},
		{"Expense", domain.TypeExpense},
		{"exp", domain.TypeExpense},
		{"cost", domain.TypeExpense},
		{"Spend", domain.TypeExpense},
		{"debit", domain.TypeExpense},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sub, row := salesRow(2, map[string]string{
				"Transaction ID": "S-001",
				"Date":           "2024-01-02",
				"Type":           tt.raw,
				"Category":       "Consulting",
				"Amount":         "10",
			})

			tx, err := n.Normalize(sub, row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.Type)
		})
	}
}

func TestNormalize_AmountFormats(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"1200.50", "1200.5"},
		{"$1,200.50", "1200.5"},
		{"1,000,000", "1000000"},
		{"€99.99", "99.99"},
		{"250 USD", "250"},
		{"-45.10", "-45.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sub, row := salesRow(2, map[string]string{
				"Transaction ID": "S-001",
				"Date":           "2024-01-02",
				"Type":           "Expense",
				"Category":       "Travel",
				"Amount":         tt.raw,
			})

			tx, err := n.Normalize(sub, row)
			require.NoError(t, err)
			assert.True(t, tx.Amount.Equal(decimal.RequireFromString(tt.want)),
				"got %s", tx.Amount)
		})
	}
}

func TestNormalize_CoercionErrors(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name   string
		values map[string]string
		field  string
	}{
		{
			name: "empty date",
			values: map[string]string{
				"Transaction ID": "S-001", "Date": "", "Type": "Revenue",
				"Category": "Consulting", "Amount": "10",
			},
			field: config.FieldDate,
		},
		{
			name: "garbage date",
			values: map[string]string{
				"Transaction ID": "S-001", "Date": "next tuesday", "Type": "Revenue",
				"Category": "Consulting", "Amount": "10",
			},
			field: config.FieldDate,
		},
		{
			name: "unknown type",
			values: map[string]string{
				"Transaction ID": "S-001", "Date": "2024-01-02", "Type": "transfer",
				"Category": "Consulting", "Amount": "10",
			},
			field: config.FieldType,
		},
		{
			name: "non-numeric amount",
			values: map[string]string{
				"Transaction ID": "S-001", "Date": "2024-01-02", "Type": "Revenue",
				"Category": "Consulting", "Amount": "ten dollars",
			},
			field: config.FieldAmount,
		},
		{
			name: "empty amount",
			values: map[string]string{
				"Transaction ID": "S-001", "Date": "2024-01-02", "Type": "Revenue",
				"Category": "Consulting", "Amount": "",
			},
			field: config.FieldAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, row := salesRow(7, tt.values)

			_, err := n.Normalize(sub, row)
			require.Error(t, err)

			var coerceErr *apierrors.CoercionError
			require.ErrorAs(t, err, &coerceErr)
			assert.Equal(t, tt.field, coerceErr.Field)
			assert.Equal(t, 7, coerceErr.Row.Line)
			assert.Equal(t, domain.DepartmentSales, coerceErr.Row.Department)
		})
	}
}

func TestNormalize_DepartmentColumn(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name     string
		declared string
		want     domain.Department
	}{
		{"absent uses owner", "", domain.DepartmentSales},
		{"declared canonical", "Finance", domain.DepartmentFinance},
		{"declared case-insensitive", "finance", domain.DepartmentFinance},
		{"unknown passes through", "R&D", domain.Department("R&D")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, row := salesRow(2, map[string]string{
				"Transaction ID": "S-001",
				"Department":     tt.declared,
				"Date":           "2024-01-02",
				"Type":           "Revenue",
				"Category":       "Consulting",
				"Amount":         "10",
			})

			tx, err := n.Normalize(sub, row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.Department)
		})
	}
}
