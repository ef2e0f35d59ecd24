package domain

import "fmt"

// IssueCode identifies one validation finding. Codes are stable strings
// so they can be counted, logged, and surfaced to the dashboard.
type IssueCode string

const (
	// Fatal codes. A row with any of these is excluded from the dataset.
	IssueUnknownDepartment IssueCode = "UnknownDepartment"
	IssueMissingID         IssueCode = "MissingID"
	IssueUnknownType       IssueCode = "UnknownType"
	IssueZeroAmount        IssueCode = "ZeroAmount"
	IssueNegativeAmount    IssueCode = "NegativeAmount"
	IssueExcessPrecision   IssueCode = "ExcessPrecision"
	IssueCoercionFailed    IssueCode = "CoercionError"

	// Soft codes. The row is kept but tagged for downstream visibility.
	IssueOutOfRangeDate   IssueCode = "OutOfRangeDate"
	IssueUncategorized    IssueCode = "Uncategorized"
	IssueCategoryMismatch IssueCode = "CategoryTypeMismatch"
)

// Fatal reports whether a finding with this code excludes the row.
func (c IssueCode) Fatal() bool {
	switch c {
	case IssueUnknownDepartment, IssueMissingID, IssueUnknownType,
		IssueZeroAmount, IssueNegativeAmount, IssueExcessPrecision,
		IssueCoercionFailed:
		return true
	}
	return false
}

// RowRef locates a raw row inside its submission for diagnostics.
type RowRef struct {
	Department Department `json:"department"`
	Line       int        `json:"line"`
}

func (r RowRef) String() string {
	return fmt.Sprintf("%s:%d", r.Department, r.Line)
}

// ValidationIssue is one finding against one field of one row. Issues
// never mutate their input; they are collected for reporting only.
type ValidationIssue struct {
	Row    RowRef    `json:"row"`
	Field  string    `json:"field"`
	Code   IssueCode `json:"code"`
	Detail string    `json:"detail,omitempty"`
}

func (i ValidationIssue) String() string {
	if i.Detail == "" {
		return fmt.Sprintf("%s %s: %s", i.Row, i.Field, i.Code)
	}
	return fmt.Sprintf("%s %s: %s (%s)", i.Row, i.Field, i.Code, i.Detail)
}
