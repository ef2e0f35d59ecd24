package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	ws "github.com/josephfalocco/finance-consolidation-dashboard/internal/websocket"
)

// OperationsHandler triggers consolidation runs over HTTP.
type OperationsHandler struct {
	runner       RunService
	hub          *ws.Hub
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates an operations handler. hub may be nil
// when no websocket surface is mounted.
func NewOperationsHandler(runner RunService, hub *ws.Hub, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		runner:       runner,
		hub:          hub,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/consolidate", h.Consolidate)
	return r
}

// Consolidate runs the full pipeline synchronously. A run is short; a
// completed response means the new snapshot is already published.
func (h *OperationsHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	ds, err := h.runner.Run(r.Context())
	if err != nil {
		if h.hub != nil {
			var busy *apierrors.ProblemDetails
			if !errors.As(err, &busy) || busy.Type != apierrors.TypeRunBusy {
				h.hub.BroadcastRunFailed(err.Error())
			}
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastDataRefresh(ds.RunID, len(ds.Transactions))
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"run_id":       ds.RunID,
		"generated_at": ds.GeneratedAt,
		"transactions": len(ds.Transactions),
		"submissions":  ds.Submissions,
		"dropped":      len(ds.Dropped),
		"soft_issues":  len(ds.SoftIssues),
	})
}
