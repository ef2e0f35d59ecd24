package normalize

import (
	"strings"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// localLabels maps department-local category spellings to canonical
// vocabulary entries. Lookup is case-insensitive; canonical names
// always map to themselves. Anything unmatched degrades to the
// Uncategorized sentinel rather than failing the row.
var localLabels = map[string]string{
	// revenue
	"sales":            "Product Sales",
	"product":          "Product Sales",
	"products":         "Product Sales",
	"services":         "Service Contracts",
	"service":          "Service Contracts",
	"contracts":        "Service Contracts",
	"saas":             "Subscriptions",
	"subscription":     "Subscriptions",
	"recurring":        "Subscriptions",
	"consulting fees":  "Consulting",
	"advisory":         "Consulting",
	"license fees":     "Licensing",
	"royalties":        "Licensing",

	// expense
	"payroll":          "Salaries",
	"wages":            "Salaries",
	"staff":            "Salaries",
	"ads":              "Advertising",
	"ad spend":         "Advertising",
	"media buy":        "Advertising",
	"tools":            "Software",
	"licenses":         "Software",
	"aws":              "Cloud Services",
	"gcp":              "Cloud Services",
	"hosting":          "Cloud Services",
	"infrastructure":   "Cloud Services",
	"t&e":              "Travel",
	"travel & expenses": "Travel",
	"supplies":         "Office Supplies",
	"stationery":       "Office Supplies",
	"electricity":      "Utilities",
	"internet":         "Utilities",
	"freelancers":      "Contractors",
	"outsourcing":      "Contractors",
	"courses":          "Training",
	"conferences":      "Training",
	"hardware":         "Equipment",
	"machinery":        "Equipment",
}

// CategoryMapper resolves department-local category labels into the
// controlled vocabulary and answers vocabulary-membership questions for
// the validator.
type CategoryMapper struct {
	revenue map[string]string // lowercased -> canonical
	expense map[string]string
}

// NewCategoryMapper builds a mapper over the configured vocabularies.
func NewCategoryMapper(revenue, expense []string) *CategoryMapper {
	m := &CategoryMapper{
		revenue: make(map[string]string, len(revenue)),
		expense: make(map[string]string, len(expense)),
	}
	for _, cat := range revenue {
		m.revenue[strings.ToLower(cat)] = cat
	}
	for _, cat := range expense {
		m.expense[strings.ToLower(cat)] = cat
	}
	return m
}

// Map resolves a raw label for a row of the given type. The result is
// always either a canonical vocabulary entry or Uncategorized.
func (m *CategoryMapper) Map(txType domain.TxType, raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" || label == strings.ToLower(domain.CategoryUncategorized) {
		return domain.CategoryUncategorized
	}

	if canonical, ok := m.vocab(txType)[label]; ok {
		return canonical
	}
	if canonical, ok := localLabels[label]; ok {
		return canonical
	}
	// A canonical name from the other type's vocabulary passes through
	// here too; the validator tags the mismatch.
	if canonical, ok := m.other(txType)[label]; ok {
		return canonical
	}
	return domain.CategoryUncategorized
}

// InVocabulary reports whether category belongs to the controlled set
// for the given type. Uncategorized is always allowed.
func (m *CategoryMapper) InVocabulary(txType domain.TxType, category string) bool {
	if category == domain.CategoryUncategorized {
		return true
	}
	_, ok := m.vocab(txType)[strings.ToLower(category)]
	return ok
}

func (m *CategoryMapper) vocab(txType domain.TxType) map[string]string {
	if txType == domain.TypeRevenue {
		return m.revenue
	}
	return m.expense
}

func (m *CategoryMapper) other(txType domain.TxType) map[string]string {
	if txType == domain.TypeRevenue {
		return m.expense
	}
	return m.revenue
}
