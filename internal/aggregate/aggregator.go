package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// hundred is the percent scale for profit margin.
var hundred = decimal.NewFromInt(100)

// Summary is the KPI snapshot the dashboard header renders.
type Summary struct {
	TotalRevenue     decimal.Decimal     `json:"total_revenue"`
	TotalExpenses    decimal.Decimal     `json:"total_expenses"`
	NetIncome        decimal.Decimal     `json:"net_income"`
	ProfitMargin     decimal.Decimal     `json:"profit_margin"` // percent; 0 when revenue is 0
	TransactionCount int                 `json:"transaction_count"`
	DateFrom         string              `json:"date_from,omitempty"`
	DateTo           string              `json:"date_to,omitempty"`
	Departments      []domain.Department `json:"departments"`
}

// GroupTotals is one bucket of a grouped view.
type GroupTotals struct {
	Key      string          `json:"key"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

// Summarize computes the KPI snapshot over the filtered view. All
// functions here are pure: they never mutate the dataset.
func Summarize(txs []domain.Transaction, f Filter) Summary {
	s := Summary{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	var first, last time.Time
	seen := make(map[domain.Department]bool)

	for _, tx := range txs {
		if !f.Match(tx) {
			continue
		}
		s.TransactionCount++
		switch tx.Type {
		case domain.TypeRevenue:
			s.TotalRevenue = s.TotalRevenue.Add(tx.Amount)
		case domain.TypeExpense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}
		if first.IsZero() || tx.Date.Before(first) {
			first = tx.Date
		}
		if last.IsZero() || tx.Date.After(last) {
			last = tx.Date
		}
		seen[tx.Department] = true
	}

	s.NetIncome = s.TotalRevenue.Sub(s.TotalExpenses)
	if s.TotalRevenue.IsPositive() {
		s.ProfitMargin = s.NetIncome.Div(s.TotalRevenue).Mul(hundred).Round(1)
	} else {
		s.ProfitMargin = decimal.Zero
	}

	if !first.IsZero() {
		s.DateFrom = first.Format("2006-01-02")
		s.DateTo = last.Format("2006-01-02")
	}

	for _, dept := range domain.ProcessingOrder {
		if seen[dept] {
			s.Departments = append(s.Departments, dept)
		}
	}

	return s
}

// ByDepartment sums the filtered view per department, in processing
// order. Departments without matching rows are omitted.
func ByDepartment(txs []domain.Transaction, f Filter) []GroupTotals {
	groups := groupBy(txs, f, func(tx domain.Transaction) string {
		return string(tx.Department)
	})
	order := make(map[string]int, len(domain.ProcessingOrder))
	for i, dept := range domain.ProcessingOrder {
		order[string(dept)] = i
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return order[groups[i].Key] < order[groups[j].Key]
	})
	return groups
}

// ByMonth sums the filtered view per YYYY-MM bucket, chronologically.
func ByMonth(txs []domain.Transaction, f Filter) []GroupTotals {
	groups := groupBy(txs, f, func(tx domain.Transaction) string {
		return tx.Month()
	})
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// ByCategory sums the filtered view per category, largest absolute
// activity first, ties broken by name for determinism.
func ByCategory(txs []domain.Transaction, f Filter) []GroupTotals {
	groups := groupBy(txs, f, func(tx domain.Transaction) string {
		return tx.Category
	})
	sort.SliceStable(groups, func(i, j int) bool {
		ai := groups[i].Revenue.Add(groups[i].Expenses)
		aj := groups[j].Revenue.Add(groups[j].Expenses)
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

func groupBy(txs []domain.Transaction, f Filter, key func(domain.Transaction) string) []GroupTotals {
	buckets := make(map[string]*GroupTotals)
	var keys []string

	for _, tx := range txs {
		if !f.Match(tx) {
			continue
		}
		k := key(tx)
		g, ok := buckets[k]
		if !ok {
			g = &GroupTotals{Key: k, Revenue: decimal.Zero, Expenses: decimal.Zero}
			buckets[k] = g
			keys = append(keys, k)
		}
		g.Count++
		switch tx.Type {
		case domain.TypeRevenue:
			g.Revenue = g.Revenue.Add(tx.Amount)
		case domain.TypeExpense:
			g.Expenses = g.Expenses.Add(tx.Amount)
		}
	}

	out := make([]GroupTotals, 0, len(keys))
	for _, k := range keys {
		g := buckets[k]
		g.Net = g.Revenue.Sub(g.Expenses)
		out = append(out, *g)
	}
	return out
}
