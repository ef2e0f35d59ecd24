// Package domain defines the canonical data model shared across the
// pipeline and the API: transactions, departments, the consolidated
// dataset, and the validation issue taxonomy. Types here carry no
// behavior beyond their own invariants; processing lives in internal/.
package domain
