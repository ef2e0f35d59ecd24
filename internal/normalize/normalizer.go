package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/ingest"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// DateFormats are the accepted input date layouts, tried in order.
// Anything else is a CoercionError.
var DateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// amountReplacer strips currency symbols, thousands separators, and
// unit suffixes before decimal parsing.
var amountReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"USD", "",
	"usd", "",
)

// Normalizer maps one raw row plus its known department to a candidate
// Transaction in the canonical schema. It is a pure transform: coercion
// failures come back as a tagged *CoercionError result, never a panic
// across the pipeline boundary, so the consolidator can decide to
// skip-and-log.
type Normalizer struct {
	aliases    map[domain.Department]map[string]string
	categories *CategoryMapper
	logger     *slog.Logger
}

// New builds a Normalizer from the loaded configuration. The alias
// tables were already validated against the canonical field list at
// config load.
func New(cfg *config.Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}

	aliases := make(map[domain.Department]map[string]string, len(cfg.Pipeline.Aliases))
	for deptName, table := range cfg.Pipeline.Aliases {
		dept, _ := domain.ParseDepartment(deptName)
		aliases[dept] = table
	}

	return &Normalizer{
		aliases:    aliases,
		categories: NewCategoryMapper(cfg.Pipeline.RevenueCategories, cfg.Pipeline.ExpenseCategories),
		logger:     logger.With(slog.String("component", "normalizer")),
	}
}

// Categories exposes the mapper for the validator's vocabulary checks.
func (n *Normalizer) Categories() *CategoryMapper {
	return n.categories
}

// Normalize converts one raw row into a candidate transaction. The
// result is unvalidated: range and business rules are the validator's
// job. Only structural coercion can fail here.
func (n *Normalizer) Normalize(sub ingest.Submission, row ingest.Row) (domain.Transaction, error) {
	ref := domain.RowRef{Department: sub.Department, Line: row.Line}
	table := n.aliases[sub.Department]

	get := func(field string) string {
		header, ok := table[field]
		if !ok {
			return ""
		}
		return row.Values[header]
	}

	tx := domain.Transaction{
		ID:             get(config.FieldID),
		VendorOrSource: get(config.FieldVendorOrSource),
		Description:    get(config.FieldDescription),
	}

	// Department: the owning department unless the layout carries a
	// column, in which case the declared value travels through to the
	// validator verbatim so an unknown department fails there, loudly,
	// instead of being silently remapped.
	tx.Department = sub.Department
	if declared := get(config.FieldDepartment); declared != "" {
		if dept, ok := domain.ParseDepartment(declared); ok {
			tx.Department = dept
		} else {
			tx.Department = domain.Department(declared)
		}
	}

	date, err := coerceDate(ref, get(config.FieldDate))
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Date = date

	txType, err := coerceType(ref, get(config.FieldType))
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Type = txType

	amount, err := coerceAmount(ref, get(config.FieldAmount))
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Amount = amount

	tx.Category = n.categories.Map(txType, get(config.FieldCategory))

	return tx, nil
}

func coerceDate(ref domain.RowRef, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apierrors.NewCoercionError(ref, config.FieldDate, raw, "empty date")
	}
	for _, layout := range DateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apierrors.NewCoercionError(ref, config.FieldDate, raw,
		fmt.Sprintf("unrecognized date format (accepted: %s)", strings.Join(DateFormats, ", ")))
}

func coerceType(ref domain.RowRef, raw string) (domain.TxType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "revenue", "rev", "income", "credit":
		return domain.TypeRevenue, nil
	case "expense", "exp", "cost", "spend", "debit":
		return domain.TypeExpense, nil
	}
	return "", apierrors.NewCoercionError(ref, config.FieldType, raw, "unrecognized transaction type")
}

func coerceAmount(ref domain.RowRef, raw string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Decimal{}, apierrors.NewCoercionError(ref, config.FieldAmount, raw, "empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, apierrors.NewCoercionError(ref, config.FieldAmount, raw, "non-numeric amount")
	}
	return amount, nil
}
