package consolidate

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/aggregate"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/ingest"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Paths.DataDir = dir
	cfg.Paths.SubmissionsDir = filepath.Join(dir, "submissions")
	cfg.Paths.OutputFile = filepath.Join(dir, "consolidated_master.csv")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Pipeline.EarliestDate = "2020-01-01"
	cfg.Pipeline.DecimalPlaces = 2
	cfg.Pipeline.RevenueCategories = config.DefaultRevenueCategories()
	cfg.Pipeline.ExpenseCategories = config.DefaultExpenseCategories()
	cfg.Pipeline.Aliases = config.DefaultAliases()
	cfg.Pipeline.Submissions = config.DefaultSubmissions()

	require.NoError(t, os.MkdirAll(cfg.Paths.SubmissionsDir, 0o755))
	return cfg
}

func writeSubmission(t *testing.T, cfg *config.Config, dept domain.Department, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.SubmissionPath(dept), []byte(content), 0o644))
}

// writeCleanSubmissions lays down one well-formed export per department.
func writeCleanSubmissions(t *testing.T, cfg *config.Config) {
	t.Helper()
	writeSubmission(t, cfg, domain.DepartmentSales,
		"Transaction ID,Department,Date,Type,Category,Amount,Client,Notes\n"+
			"S-001,Sales,2024-03-15,Revenue,Product Sales,1200.50,Acme Corp,Q1 bulk order\n"+
			"S-002,Sales,2024-01-10,Revenue,Consulting,800.00,Globex,Advisory retainer\n")
	writeSubmission(t, cfg, domain.DepartmentMarketing,
		"ID,Dept,Txn Date,Revenue/Expense,Spend Category,Cost (USD),Vendor,Campaign Notes\n"+
			"M-001,Marketing,03/20/2024,Expense,ads,$3400.00,AdWords,Spring push\n")
	writeSubmission(t, cfg, domain.DepartmentOperations,
		"ref,department,txn_date,txn_type,category,amount_usd,supplier,description\n"+
			"O-001,Operations,2024/02/01,expense,hosting,950.25,AWS,Monthly infra\n")
	writeSubmission(t, cfg, domain.DepartmentFinance,
		"TXN_ID,DEPT,POSTING_DATE,TYPE,GL_CATEGORY,AMOUNT,COUNTERPARTY,MEMO\n"+
			"F-001,Finance,15-Mar-2024,expense,Salaries,50000.00,Payroll Inc,March payroll\n")
}

func TestRun_MergesAllDepartments(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ds)

	require.Len(t, ds.Transactions, 5)
	require.Len(t, ds.Submissions, 4)
	assert.Empty(t, ds.Dropped)
	assert.Empty(t, ds.SoftIssues)

	// date ascending; Finance before Sales on the shared date
	ids := make([]string, 0, len(ds.Transactions))
	for _, tx := range ds.Transactions {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"S-002", "O-001", "F-001", "S-001", "M-001"}, ids)

	for _, report := range ds.Submissions {
		assert.False(t, report.Failed())
		assert.Equal(t, report.RowsRead, report.RowsKept)
	}

	assert.Same(t, ds, c.Store().Current())
	assert.FileExists(t, cfg.OutputPath())
}

func TestRun_ProcessingOrderInReports(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	depts := make([]domain.Department, 0, len(ds.Submissions))
	for _, report := range ds.Submissions {
		depts = append(depts, report.Department)
	}
	assert.Equal(t, domain.ProcessingOrder, depts)
}

func TestRun_DuplicateIDLaterDepartmentWins(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	// same id as the Sales row, exported again by Finance
	writeSubmission(t, cfg, domain.DepartmentFinance,
		"TXN_ID,DEPT,POSTING_DATE,TYPE,GL_CATEGORY,AMOUNT,COUNTERPARTY,MEMO\n"+
			"S-001,Sales,2024-03-15,revenue,Product Sales,1300.00,Acme Corp,Corrected booking\n")
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Transactions, 4)
	var kept *domain.Transaction
	for i := range ds.Transactions {
		if ds.Transactions[i].ID == "S-001" {
			require.Nil(t, kept, "id must appear exactly once")
			kept = &ds.Transactions[i]
		}
	}
	require.NotNil(t, kept)
	assert.Equal(t, "1300", kept.Amount.String())
	assert.Equal(t, "Corrected booking", kept.Description)
}

func TestRun_DropsFatalRows(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	writeSubmission(t, cfg, domain.DepartmentSales,
		"Transaction ID,Department,Date,Type,Category,Amount,Client,Notes\n"+
			"S-001,Sales,2024-03-15,Revenue,Product Sales,1200.50,Acme Corp,good row\n"+
			"S-002,R&D,2024-03-16,Revenue,Product Sales,100.00,Initech,unknown department\n"+
			"S-003,Sales,2024-03-17,Revenue,Product Sales,0,Initech,zero amount\n"+
			"S-004,Sales,2024-03-18,Expense,Travel,-55.00,Initech,negative amount\n"+
			",Sales,2024-03-19,Revenue,Consulting,10.00,Initech,missing id\n"+
			"S-006,Sales,not-a-date,Revenue,Consulting,10.00,Initech,coercion failure\n")
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	sales := ds.Submissions[0]
	assert.Equal(t, 6, sales.RowsRead)
	assert.Equal(t, 1, sales.RowsKept)
	assert.Equal(t, 5, sales.RowsDropped)

	got := make(map[domain.IssueCode]bool)
	for _, is := range ds.Dropped {
		got[is.Code] = true
	}
	assert.True(t, got[domain.IssueUnknownDepartment])
	assert.True(t, got[domain.IssueZeroAmount])
	assert.True(t, got[domain.IssueNegativeAmount])
	assert.True(t, got[domain.IssueMissingID])
	assert.True(t, got[domain.IssueCoercionFailed])
}

func TestRun_TagsSoftRowsButKeepsThem(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	writeSubmission(t, cfg, domain.DepartmentOperations,
		"ref,department,txn_date,txn_type,category,amount_usd,supplier,description\n"+
			"O-001,Operations,2019-06-01,expense,hosting,950.25,AWS,pre-cutoff row\n"+
			"O-002,Operations,2024-02-01,expense,mystery spend,40.00,Unknown Co,unmappable category\n")
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	ops := ds.Submissions[2]
	assert.Equal(t, 2, ops.RowsRead)
	assert.Equal(t, 2, ops.RowsKept)
	assert.Equal(t, 2, ops.RowsTagged)

	byID := make(map[string]domain.Transaction)
	for _, tx := range ds.Transactions {
		byID[tx.ID] = tx
	}
	require.Contains(t, byID, "O-001")
	require.Contains(t, byID, "O-002")
	assert.Equal(t, domain.CategoryUncategorized, byID["O-002"].Category)

	codes := make(map[domain.IssueCode]bool)
	for _, is := range ds.SoftIssues {
		codes[is.Code] = true
	}
	assert.True(t, codes[domain.IssueOutOfRangeDate])
	assert.True(t, codes[domain.IssueUncategorized])
}

// erringSource yields a fixed set of rows, then a read failure.
type erringSource struct {
	rows []ingest.Row
	err  error
}

func (s *erringSource) Next() (ingest.Row, error) {
	if len(s.rows) == 0 {
		return ingest.Row{}, s.err
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func (s *erringSource) Skipped() []ingest.SkippedRow { return nil }

func TestConsumeSubmission_MidReadFailureDiscardsRows(t *testing.T) {
	cfg := testConfig(t)
	c := New(cfg, NewStore(), nil, nil)

	salesRow := func(line int, id string) ingest.Row {
		return ingest.Row{Line: line, Values: map[string]string{
			"Transaction ID": id,
			"Department":     "Sales",
			"Date":           "2024-03-15",
			"Type":           "Revenue",
			"Category":       "Consulting",
			"Amount":         "100.00",
			"Client":         "Acme Corp",
			"Notes":          "ok",
		}}
	}
	sub := ingest.Submission{Department: domain.DepartmentSales, Path: cfg.SubmissionPath(domain.DepartmentSales)}
	src := &erringSource{
		rows: []ingest.Row{salesRow(2, "S-001"), salesRow(3, "S-002")},
		err:  apierrors.NewParseError(sub.Department, sub.Path, errors.New("unexpected EOF")),
	}

	byID := make(map[string]*entry)
	ds := &domain.Dataset{}
	seq := 0

	report := c.consumeSubmission(sub, src, byID, &seq, ds)

	assert.True(t, report.Failed())
	assert.Equal(t, 0, report.RowsKept)
	assert.Empty(t, byID, "rows read before the failure must not reach the dataset")
	assert.Empty(t, ds.Dropped)
	assert.Empty(t, ds.SoftIssues)
	assert.Equal(t, 0, seq)
}

func TestRun_MissingSubmissionContinues(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	require.NoError(t, os.Remove(cfg.SubmissionPath(domain.DepartmentMarketing)))
	c := New(cfg, NewStore(), nil, nil)

	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Submissions, 4)
	marketing := ds.Submissions[1]
	assert.True(t, marketing.Failed())
	assert.NotEmpty(t, marketing.Error)

	require.Len(t, ds.Transactions, 4)
	for _, tx := range ds.Transactions {
		assert.NotEqual(t, domain.DepartmentMarketing, tx.Department)
	}
}

func TestRun_AllSubmissionsMissingFails(t *testing.T) {
	cfg := testConfig(t)
	store := NewStore()
	c := New(cfg, store, nil, nil)

	_, err := c.Run(context.Background())

	require.Error(t, err)
	var consErr *apierrors.ConsolidationError
	require.ErrorAs(t, err, &consErr)
	assert.Nil(t, store.Current())
	assert.NoFileExists(t, cfg.OutputPath())

	status := store.Status()
	assert.False(t, status.Running)
	assert.NotEmpty(t, status.LastError)
}

func TestRun_FailedRunPreservesPreviousSnapshot(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	store := NewStore()
	c := New(cfg, store, nil, nil)

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)

	for _, dept := range domain.ProcessingOrder {
		require.NoError(t, os.Remove(cfg.SubmissionPath(dept)))
	}

	_, err = c.Run(context.Background())
	require.Error(t, err)

	assert.Same(t, first, store.Current())
	after, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, store.Status().Stale())
}

func TestRun_DeterministicOutput(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	c := New(cfg, NewStore(), nil, nil)

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_ResubmissionReplacesWholesale(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	c := New(cfg, NewStore(), nil, nil)

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Transactions, 5)

	// Sales re-exports with one row corrected and one removed; nothing
	// from the previous run may survive the replacement.
	writeSubmission(t, cfg, domain.DepartmentSales,
		"Transaction ID,Department,Date,Type,Category,Amount,Client,Notes\n"+
			"S-001,Sales,2024-03-15,Revenue,Product Sales,1250.00,Acme Corp,corrected\n")

	second, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Transactions, 4)
	for _, tx := range second.Transactions {
		assert.NotEqual(t, "S-002", tx.ID)
		if tx.ID == "S-001" {
			assert.Equal(t, "1250", tx.Amount.String())
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	store := NewStore()
	c := New(cfg, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx)

	require.Error(t, err)
	var consErr *apierrors.ConsolidationError
	require.ErrorAs(t, err, &consErr)
	assert.Nil(t, store.Current())
	assert.False(t, store.Status().Running)
}

func TestRun_OutputFileContents(t *testing.T) {
	cfg := testConfig(t)
	writeCleanSubmissions(t, cfg)
	c := New(cfg, NewStore(), nil, nil)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	content := string(raw)

	assert.Contains(t, content, "id,department,date,type,category,amount,vendor_or_source,description\n")
	assert.Contains(t, content, "S-001,Sales,2024-03-15,Revenue,Product Sales,1200.50,Acme Corp,Q1 bulk order\n")
	assert.Contains(t, content, "M-001,Marketing,2024-03-20,Expense,Advertising,3400.00,AdWords,Spring push\n")
}

func TestRun_LargeSubmissionsReconcile(t *testing.T) {
	cfg := testConfig(t)

	counts := map[domain.Department]int{
		domain.DepartmentSales:      389,
		domain.DepartmentMarketing:  327,
		domain.DepartmentOperations: 406,
		domain.DepartmentFinance:    247,
	}
	headers := map[domain.Department]string{
		domain.DepartmentSales:      "Transaction ID,Department,Date,Type,Category,Amount,Client,Notes",
		domain.DepartmentMarketing:  "ID,Dept,Txn Date,Revenue/Expense,Spend Category,Cost (USD),Vendor,Campaign Notes",
		domain.DepartmentOperations: "ref,department,txn_date,txn_type,category,amount_usd,supplier,description",
		domain.DepartmentFinance:    "TXN_ID,DEPT,POSTING_DATE,TYPE,GL_CATEGORY,AMOUNT,COUNTERPARTY,MEMO",
	}
	layouts := map[domain.Department]string{
		domain.DepartmentSales:      "2006-01-02",
		domain.DepartmentMarketing:  "01/02/2006",
		domain.DepartmentOperations: "2006/01/02",
		domain.DepartmentFinance:    "02-Jan-2006",
	}
	prefixes := map[domain.Department]string{
		domain.DepartmentSales:      "S",
		domain.DepartmentMarketing:  "M",
		domain.DepartmentOperations: "O",
		domain.DepartmentFinance:    "F",
	}

	wantRevenue := decimal.Zero
	wantExpenses := decimal.Zero
	total := 0
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, dept := range domain.ProcessingOrder {
		var b strings.Builder
		b.WriteString(headers[dept] + "\n")
		for i := 0; i < counts[dept]; i++ {
			amount := decimal.NewFromInt(int64(100 + i)).Add(decimal.New(int64(i%100), -2))
			txType, category := "Revenue", "Consulting"
			if i%2 == 1 {
				txType, category = "Expense", "Travel"
				wantExpenses = wantExpenses.Add(amount)
			} else {
				wantRevenue = wantRevenue.Add(amount)
			}
			fmt.Fprintf(&b, "%s-%04d,%s,%s,%s,%s,%s,Vendor Co,bulk export row\n",
				prefixes[dept], i+1, dept,
				base.AddDate(0, 0, i%365).Format(layouts[dept]),
				txType, category, amount.StringFixed(2))
		}
		writeSubmission(t, cfg, dept, b.String())
		total += counts[dept]
	}
	require.Equal(t, 1369, total)

	c := New(cfg, NewStore(), nil, nil)
	ds, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Transactions, 1369)
	assert.Empty(t, ds.Dropped)
	assert.Empty(t, ds.SoftIssues)
	for _, report := range ds.Submissions {
		require.False(t, report.Failed())
		assert.Equal(t, counts[report.Department], report.RowsRead)
		assert.Equal(t, report.RowsRead, report.RowsKept)
		assert.Zero(t, report.RowsDropped)
	}

	s := aggregate.Summarize(ds.Transactions, aggregate.Filter{})
	assert.Equal(t, 1369, s.TransactionCount)
	assert.True(t, s.TotalRevenue.Equal(wantRevenue),
		"revenue %s, want %s", s.TotalRevenue, wantRevenue)
	assert.True(t, s.TotalExpenses.Equal(wantExpenses),
		"expenses %s, want %s", s.TotalExpenses, wantExpenses)
	assert.True(t, s.NetIncome.Equal(wantRevenue.Sub(wantExpenses)))

	// The written master must carry every row and reconcile to the
	// same totals.
	f, err := os.Open(cfg.OutputPath())
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1370)

	fileRevenue, fileExpenses := decimal.Zero, decimal.Zero
	for _, rec := range records[1:] {
		amt := decimal.RequireFromString(rec[5])
		switch rec[3] {
		case "Revenue":
			fileRevenue = fileRevenue.Add(amt)
		case "Expense":
			fileExpenses = fileExpenses.Add(amt)
		default:
			t.Fatalf("unexpected type %q in output", rec[3])
		}
	}
	assert.True(t, fileRevenue.Equal(wantRevenue))
	assert.True(t, fileExpenses.Equal(wantExpenses))
}
