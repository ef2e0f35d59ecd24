package errors

import (
	"fmt"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// ParseError reports a submission file that could not be read as
// tabular text at all. It is fatal for that submission only; the run
// proceeds with the remaining departments and reports the missing one.
type ParseError struct {
	Department domain.Department
	Path       string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s submission %q: %v", e.Department, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps a file-level failure for one submission.
func NewParseError(dept domain.Department, path string, err error) *ParseError {
	return &ParseError{Department: dept, Path: path, Err: err}
}

// CoercionError reports a raw cell value that could not be coerced into
// its canonical type. It is row-level and recoverable: the consolidator
// skips the row and logs the reason, the run continues.
type CoercionError struct {
	Row    domain.RowRef
	Field  string
	Value  string
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce %s field %q value %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

// NewCoercionError builds a row-level coercion failure.
func NewCoercionError(row domain.RowRef, field, value, reason string) *CoercionError {
	return &CoercionError{Row: row, Field: field, Value: value, Reason: reason}
}

// ConsolidationError reports a run-level failure. It aborts the run;
// the previously published dataset stays in place, in memory and on
// disk.
type ConsolidationError struct {
	Reason string
	Err    error
}

func (e *ConsolidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consolidation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("consolidation failed: %s", e.Reason)
}

func (e *ConsolidationError) Unwrap() error {
	return e.Err
}

// NewConsolidationError wraps a run-level failure.
func NewConsolidationError(reason string, err error) *ConsolidationError {
	return &ConsolidationError{Reason: reason, Err: err}
}
