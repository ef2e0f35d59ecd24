package aggregate

import (
	"strings"
	"time"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Filter restricts a dataset view. A zero Filter matches everything.
// The same Filter value is applied to the table and to every aggregate
// so they always reconcile.
type Filter struct {
	Department *domain.Department
	From       *time.Time // inclusive
	To         *time.Time // inclusive
	Category   string
	Search     string // case-insensitive, over description and vendor_or_source
}

// Match reports whether tx passes every active criterion.
func (f Filter) Match(tx domain.Transaction) bool {
	if f.Department != nil && tx.Department != *f.Department {
		return false
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(tx.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.VendorOrSource), needle) {
			return false
		}
	}
	return true
}

// Apply returns the transactions passing the filter, in their original
// order.
func Apply(txs []domain.Transaction, f Filter) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}
