package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Department identifies the owner of a submission. The four values are
// fixed; anything else in a department column is rejected at validation.
type Department string

const (
	DepartmentSales      Department = "Sales"
	DepartmentMarketing  Department = "Marketing"
	DepartmentOperations Department = "Operations"
	DepartmentFinance    Department = "Finance"
)

// ProcessingOrder is the order submissions are consolidated in. It is
// part of the contract, not an implementation detail: when the same
// transaction id appears in more than one submission, the occurrence
// from the department processed later in this order wins.
var ProcessingOrder = []Department{
	DepartmentSales,
	DepartmentMarketing,
	DepartmentOperations,
	DepartmentFinance,
}

// ParseDepartment maps a raw string to a known department. Matching is
// case-insensitive on the canonical names only; abbreviations are the
// normalizer's business.
func ParseDepartment(s string) (Department, bool) {
	for _, d := range ProcessingOrder {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether d is one of the four known departments.
func (d Department) Valid() bool {
	_, ok := ParseDepartment(string(d))
	return ok
}

// TxType classifies a transaction. Amounts are always non-negative;
// the sign of a row's contribution to net income is implied by its type.
type TxType string

const (
	TypeRevenue TxType = "Revenue"
	TypeExpense TxType = "Expense"
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	return t == TypeRevenue || t == TypeExpense
}

// CategoryUncategorized is the sentinel category assigned when a
// department-local label cannot be mapped into the controlled
// vocabulary. It is valid for both transaction types.
const CategoryUncategorized = "Uncategorized"

// Transaction is one canonical row of the consolidated dataset.
type Transaction struct {
	ID             string          `json:"id"`
	Department     Department      `json:"department"`
	Date           time.Time       `json:"date"`
	Type           TxType          `json:"type"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	VendorOrSource string          `json:"vendor_or_source"`
	Description    string          `json:"description"`
}

// Month returns the YYYY-MM bucket the transaction falls in, matching
// the monthly grouping used by the dashboard.
func (t Transaction) Month() string {
	return t.Date.Format("2006-01")
}

// DateString returns the ISO 8601 date used in the output CSV.
func (t Transaction) DateString() string {
	return t.Date.Format("2006-01-02")
}
