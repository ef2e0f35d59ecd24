package http

import (
	"context"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/consolidate"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// DatasetProvider exposes the published snapshot to handlers. Reads
// are lock-free; the snapshot is immutable.
type DatasetProvider interface {
	Current() *domain.Dataset
	Status() consolidate.RunStatus
}

// RunService triggers consolidation runs.
type RunService interface {
	Run(ctx context.Context) (*domain.Dataset, error)
}
