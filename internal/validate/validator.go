package validate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/normalize"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Result carries a candidate transaction together with every issue
// found against it. Carrying both lets the consolidator decide policy
// (drop vs tag) independent of the validation logic.
type Result struct {
	Transaction domain.Transaction
	Issues      []domain.ValidationIssue
}

// Fatal reports whether any issue excludes the row from the dataset.
func (r Result) Fatal() bool {
	for _, is := range r.Issues {
		if is.Code.Fatal() {
			return true
		}
	}
	return false
}

// Tagged reports whether the row carries at least one soft issue.
func (r Result) Tagged() bool {
	return len(r.Issues) > 0 && !r.Fatal()
}

// Validator enforces the per-field and cross-field invariants of the
// canonical schema. Every rule is checked independently, never
// short-circuited, so a single row can surface multiple issues.
type Validator struct {
	earliest   time.Time
	places     int32
	categories *normalize.CategoryMapper
	now        func() time.Time
	logger     *slog.Logger
}

// New builds a Validator from the pipeline configuration.
func New(cfg *config.Config, categories *normalize.CategoryMapper, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		earliest:   cfg.Pipeline.Earliest(),
		places:     cfg.Pipeline.DecimalPlaces,
		categories: categories,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "validator")),
	}
}

// Validate checks one candidate transaction. The input is never
// mutated; the returned Result carries the (possibly category-remapped)
// transaction and all findings.
func (v *Validator) Validate(tx domain.Transaction, ref domain.RowRef) Result {
	res := Result{Transaction: tx}
	add := func(field string, code domain.IssueCode, detail string) {
		res.Issues = append(res.Issues, domain.ValidationIssue{
			Row: ref, Field: field, Code: code, Detail: detail,
		})
	}

	if tx.ID == "" {
		add(config.FieldID, domain.IssueMissingID, "id is required and must be unique")
	}

	if !tx.Department.Valid() {
		add(config.FieldDepartment, domain.IssueUnknownDepartment,
			fmt.Sprintf("%q is not a known department", string(tx.Department)))
	}

	if !tx.Type.Valid() {
		add(config.FieldType, domain.IssueUnknownType,
			fmt.Sprintf("%q is not a known transaction type", string(tx.Type)))
	}

	v.checkDate(tx, add)
	v.checkAmount(tx, add)
	v.checkCategory(tx, &res, add)

	return res
}

func (v *Validator) checkDate(tx domain.Transaction, add func(string, domain.IssueCode, string)) {
	today := v.now().UTC().Truncate(24 * time.Hour)
	switch {
	case tx.Date.Before(v.earliest):
		add(config.FieldDate, domain.IssueOutOfRangeDate,
			fmt.Sprintf("date %s is before the earliest allowed date %s",
				tx.Date.Format("2006-01-02"), v.earliest.Format("2006-01-02")))
	case tx.Date.After(today):
		add(config.FieldDate, domain.IssueOutOfRangeDate,
			fmt.Sprintf("date %s is in the future", tx.Date.Format("2006-01-02")))
	}
}

func (v *Validator) checkAmount(tx domain.Transaction, add func(string, domain.IssueCode, string)) {
	switch sign := tx.Amount.Sign(); {
	case sign == 0:
		add(config.FieldAmount, domain.IssueZeroAmount, "zero-amount rows are dropped")
	case sign < 0:
		add(config.FieldAmount, domain.IssueNegativeAmount,
			"amounts are unsigned; sign is implied by the transaction type")
	}

	// Trailing zeros are not excess precision; only digits that would
	// actually be lost at the configured scale reject the row.
	if !tx.Amount.Equal(tx.Amount.Truncate(v.places)) {
		add(config.FieldAmount, domain.IssueExcessPrecision,
			fmt.Sprintf("amount %s exceeds the configured %d decimal places", tx.Amount.String(), v.places))
	}
}

// checkCategory enforces the disjoint-vocabulary invariant: revenue
// rows carry revenue categories, expense rows expense categories. A
// plausible row in the wrong set is kept, remapped to Uncategorized,
// and tagged; an empty category never reaches this point (the
// normalizer already mapped it to the sentinel).
func (v *Validator) checkCategory(tx domain.Transaction, res *Result, add func(string, domain.IssueCode, string)) {
	if !tx.Type.Valid() {
		return
	}
	if tx.Category == domain.CategoryUncategorized {
		add(config.FieldCategory, domain.IssueUncategorized, "category could not be mapped to the controlled vocabulary")
		return
	}
	if !v.categories.InVocabulary(tx.Type, tx.Category) {
		add(config.FieldCategory, domain.IssueCategoryMismatch,
			fmt.Sprintf("category %q is not in the %s vocabulary", tx.Category, tx.Type))
		res.Transaction.Category = domain.CategoryUncategorized
	}
}
