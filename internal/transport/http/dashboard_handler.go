package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/aggregate"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

const defaultPageSize = 100

// DashboardHandler serves the aggregate views and the searchable
// transaction table consumed by the presentation layer.
type DashboardHandler struct {
	provider     DatasetProvider
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(provider DatasetProvider, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		provider:     provider,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/transactions", h.GetTransactions)
	r.Route("/aggregates", func(r chi.Router) {
		r.Get("/departments", h.GetByDepartment)
		r.Get("/months", h.GetByMonth)
		r.Get("/categories", h.GetByCategory)
	})

	return r
}

// summaryResponse is the KPI payload plus run freshness.
type summaryResponse struct {
	aggregate.Summary
	RunID            string                    `json:"run_id"`
	GeneratedAt      time.Time                 `json:"generated_at"`
	Stale            bool                      `json:"stale"`
	LastError        string                    `json:"last_error,omitempty"`
	SoftIssueCount   int                       `json:"soft_issue_count"`
	DroppedRowCount  int                       `json:"dropped_row_count"`
	Submissions      []domain.SubmissionReport `json:"submissions"`
}

// GetSummary returns the KPI snapshot for the current filter.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	status := h.provider.Status()
	resp := summaryResponse{
		Summary:         aggregate.Summarize(ds.Transactions, filter),
		RunID:           ds.RunID,
		GeneratedAt:     ds.GeneratedAt,
		Stale:           status.Stale(),
		LastError:       status.LastError,
		SoftIssueCount:  len(ds.SoftIssues),
		DroppedRowCount: len(ds.Dropped),
		Submissions:     ds.Submissions,
	}
	render.JSON(w, r, resp)
}

// transactionsResponse pages through the filtered table.
type transactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// GetTransactions returns the filtered, searched, paged table.
func (h *DashboardHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	matched := aggregate.Apply(ds.Transactions, filter)

	limit, offset, err := parsePaging(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page := matched
	if offset >= len(matched) {
		page = nil
	} else {
		page = matched[offset:]
		if limit < len(page) {
			page = page[:limit]
		}
	}

	render.JSON(w, r, transactionsResponse{
		Transactions: page,
		Total:        len(matched),
		Limit:        limit,
		Offset:       offset,
	})
}

// GetByDepartment returns grouped sums per department.
func (h *DashboardHandler) GetByDepartment(w http.ResponseWriter, r *http.Request) {
	h.grouped(w, r, aggregate.ByDepartment)
}

// GetByMonth returns grouped sums per month.
func (h *DashboardHandler) GetByMonth(w http.ResponseWriter, r *http.Request) {
	h.grouped(w, r, aggregate.ByMonth)
}

// GetByCategory returns grouped sums per category.
func (h *DashboardHandler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	h.grouped(w, r, aggregate.ByCategory)
}

func (h *DashboardHandler) grouped(w http.ResponseWriter, r *http.Request, group func([]domain.Transaction, aggregate.Filter) []aggregate.GroupTotals) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"groups": group(ds.Transactions, filter),
	})
}

func (h *DashboardHandler) dataset(w http.ResponseWriter, r *http.Request) (*domain.Dataset, bool) {
	ds := h.provider.Current()
	if ds == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoDataset())
		return nil, false
	}
	return ds, true
}

// parseFilter builds the uniform dataset filter from query parameters:
// department, from, to (YYYY-MM-DD, inclusive), category, q.
func parseFilter(r *http.Request) (aggregate.Filter, error) {
	q := r.URL.Query()
	var f aggregate.Filter

	if raw := q.Get("department"); raw != "" {
		dept, ok := domain.ParseDepartment(raw)
		if !ok {
			return f, apierrors.ErrValidation("department", "unknown department "+strconv.Quote(raw))
		}
		f.Department = &dept
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, apierrors.ErrValidation("from", "expected YYYY-MM-DD")
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, apierrors.ErrValidation("to", "expected YYYY-MM-DD")
		}
		f.To = &t
	}
	f.Category = q.Get("category")
	f.Search = q.Get("q")

	return f, nil
}

func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			return 0, 0, apierrors.ErrValidation("limit", "expected an integer between 1 and 1000")
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apierrors.ErrValidation("offset", "expected a non-negative integer")
		}
	}
	return limit, offset, nil
}
