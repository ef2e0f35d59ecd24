package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Canonical field names of the master schema. Alias tables map each of
// these to a department-specific source header. FieldDepartment is
// optional in a submission layout (the owning department fills it in);
// the rest are required.
const (
	FieldID             = "id"
	FieldDepartment     = "department"
	FieldDate           = "date"
	FieldType           = "type"
	FieldCategory       = "category"
	FieldAmount         = "amount"
	FieldVendorOrSource = "vendor_or_source"
	FieldDescription    = "description"
)

// CanonicalFields lists every canonical field, in output column order.
var CanonicalFields = []string{
	FieldID,
	FieldDepartment,
	FieldDate,
	FieldType,
	FieldCategory,
	FieldAmount,
	FieldVendorOrSource,
	FieldDescription,
}

// OptionalFields are canonical fields a submission layout may omit.
var OptionalFields = map[string]bool{
	FieldDepartment: true,
}

// DefaultRevenueCategories returns the controlled revenue vocabulary.
func DefaultRevenueCategories() []string {
	return []string{
		"Product Sales",
		"Service Contracts",
		"Subscriptions",
		"Consulting",
		"Licensing",
	}
}

// DefaultExpenseCategories returns the controlled expense vocabulary.
func DefaultExpenseCategories() []string {
	return []string{
		"Salaries",
		"Advertising",
		"Software",
		"Cloud Services",
		"Travel",
		"Office Supplies",
		"Utilities",
		"Contractors",
		"Training",
		"Equipment",
	}
}

// DefaultAliases returns the built-in per-department alias tables.
// Each department exports the same data under different headers; the
// tables are static configuration, never inferred from the file.
func DefaultAliases() map[string]map[string]string {
	return map[string]map[string]string{
		string(domain.DepartmentSales): {
			FieldID:             "Transaction ID",
			FieldDepartment:     "Department",
			FieldDate:           "Date",
			FieldType:           "Type",
			FieldCategory:       "Category",
			FieldAmount:         "Amount",
			FieldVendorOrSource: "Client",
			FieldDescription:    "Notes",
		},
		string(domain.DepartmentMarketing): {
			FieldID:             "ID",
			FieldDepartment:     "Dept",
			FieldDate:           "Txn Date",
			FieldType:           "Revenue/Expense",
			FieldCategory:       "Spend Category",
			FieldAmount:         "Cost (USD)",
			FieldVendorOrSource: "Vendor",
			FieldDescription:    "Campaign Notes",
		},
		string(domain.DepartmentOperations): {
			FieldID:             "ref",
			FieldDepartment:     "department",
			FieldDate:           "txn_date",
			FieldType:           "txn_type",
			FieldCategory:       "category",
			FieldAmount:         "amount_usd",
			FieldVendorOrSource: "supplier",
			FieldDescription:    "description",
		},
		string(domain.DepartmentFinance): {
			FieldID:             "TXN_ID",
			FieldDepartment:     "DEPT",
			FieldDate:           "POSTING_DATE",
			FieldType:           "TYPE",
			FieldCategory:       "GL_CATEGORY",
			FieldAmount:         "AMOUNT",
			FieldVendorOrSource: "COUNTERPARTY",
			FieldDescription:    "MEMO",
		},
	}
}

// DefaultSubmissions returns the expected file name per department.
func DefaultSubmissions() map[string]string {
	return map[string]string{
		string(domain.DepartmentSales):      "sales_export.csv",
		string(domain.DepartmentMarketing):  "marketing_export.csv",
		string(domain.DepartmentOperations): "operations_export.csv",
		string(domain.DepartmentFinance):    "finance_export.csv",
	}
}

func validateVocabularies(revenue, expense []string) error {
	seen := make(map[string]string, len(revenue))
	for _, cat := range revenue {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("invalid configuration: empty revenue category")
		}
		seen[strings.ToLower(cat)] = cat
	}
	for _, cat := range expense {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("invalid configuration: empty expense category")
		}
		if other, ok := seen[strings.ToLower(cat)]; ok {
			return fmt.Errorf("invalid configuration: category %q appears in both vocabularies (revenue entry %q)", cat, other)
		}
	}
	return nil
}

func validateAliases(aliases map[string]map[string]string) error {
	for deptName, table := range aliases {
		dept, ok := domain.ParseDepartment(deptName)
		if !ok {
			return fmt.Errorf("invalid configuration: alias table for unknown department %q", deptName)
		}
		headers := make(map[string]string, len(table))
		for field, header := range table {
			if !isCanonicalField(field) {
				known := strings.Join(CanonicalFields, ", ")
				return fmt.Errorf("invalid configuration: %s alias table maps unknown field %q (known: %s)", dept, field, known)
			}
			if strings.TrimSpace(header) == "" {
				return fmt.Errorf("invalid configuration: %s alias table maps field %q to an empty header", dept, field)
			}
			if prev, dup := headers[header]; dup {
				return fmt.Errorf("invalid configuration: %s alias table maps header %q to both %q and %q", dept, header, prev, field)
			}
			headers[header] = field
		}
		for _, field := range CanonicalFields {
			if OptionalFields[field] {
				continue
			}
			if _, ok := table[field]; !ok {
				return fmt.Errorf("invalid configuration: %s alias table missing canonical field %q", dept, field)
			}
		}
	}
	for _, dept := range domain.ProcessingOrder {
		if _, ok := aliases[string(dept)]; !ok {
			return fmt.Errorf("invalid configuration: no alias table for department %s", dept)
		}
	}
	return nil
}

func validateSubmissions(submissions map[string]string) error {
	for deptName, file := range submissions {
		if _, ok := domain.ParseDepartment(deptName); !ok {
			return fmt.Errorf("invalid configuration: submission for unknown department %q", deptName)
		}
		if strings.TrimSpace(file) == "" {
			return fmt.Errorf("invalid configuration: empty submission file for department %q", deptName)
		}
	}
	missing := make([]string, 0, len(domain.ProcessingOrder))
	for _, dept := range domain.ProcessingOrder {
		if _, ok := submissions[string(dept)]; !ok {
			missing = append(missing, string(dept))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("invalid configuration: no submission file for departments: %s", strings.Join(missing, ", "))
	}
	return nil
}

func isCanonicalField(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}
	return false
}
