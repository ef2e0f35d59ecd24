package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/exporter"
)

// DataHandler serves dataset downloads in csv and xlsx form.
type DataHandler struct {
	provider     DatasetProvider
	csv          *exporter.CSVWriter
	excel        *exporter.ExcelWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a download handler.
func NewDataHandler(provider DatasetProvider, csv *exporter.CSVWriter, excel *exporter.ExcelWriter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		provider:     provider,
		csv:          csv,
		excel:        excel,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the download routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/download/{format}", h.Download)
	return r
}

// Download streams the current dataset in the requested format.
func (h *DataHandler) Download(w http.ResponseWriter, r *http.Request) {
	ds := h.provider.Current()
	if ds == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoDataset())
		return
	}

	filename := fmt.Sprintf("consolidated_master_%s", ds.GeneratedAt.Format("20060102"))

	switch format := chi.URLParam(r, "format"); format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		if err := h.csv.Write(w, ds); err != nil {
			h.logger.Error("csv download failed", slog.String("error", err.Error()))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))
		if err := h.excel.Write(w, ds); err != nil {
			h.logger.Error("xlsx download failed", slog.String("error", err.Error()))
		}
	default:
		h.errorHandler.HandleError(w, r, apierrors.NewProblemDetails(
			http.StatusBadRequest,
			apierrors.TypeBadDownload,
			"Unsupported Download Format",
			fmt.Sprintf("format %q is not supported; use csv or xlsx", format),
			r.URL.Path,
		))
	}
}
