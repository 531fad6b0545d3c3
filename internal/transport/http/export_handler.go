package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "washpulse/internal/errors"
	"washpulse/internal/exporter"
	"washpulse/internal/infrastructure"
	"washpulse/internal/services"
)

// ExportHandler serves the CSV and XLSX download endpoints. Downloads
// honor the same from/to/sites filter as the dashboard views.
type ExportHandler struct {
	service      ExportProvider
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	metrics      *infrastructure.PipelineMetrics
}

// NewExportHandler creates a new export handler. metrics may be nil.
func NewExportHandler(service ExportProvider, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, metrics *infrastructure.PipelineMetrics) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
		metrics:      metrics,
	}
}

// Routes returns the export routes. The static workbook route wins
// over the {table} wildcard.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/workbook.xlsx", h.DownloadWorkbook)
	r.Get("/{table}.csv", h.DownloadCSV)

	return r
}

// DownloadCSV handles GET /api/export/{table}.csv.
func (h *ExportHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	table := chi.URLParam(r, "table")

	data, ok := h.exportData(w, r)
	if !ok {
		return
	}

	tbl, ok := exporter.BuildTable(data, table)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"UNKNOWN_EXPORT_TABLE",
			fmt.Sprintf("%s: %q", services.ErrUnknownTable.Error(), table),
			map[string]interface{}{
				"available": exporter.TableKeys(),
			},
		))
		return
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"export.format": "csv",
		"export.table":  tbl.Key,
		"export.rows":   len(tbl.Rows),
	})
	h.logger.InfoContext(ctx, "exporting table",
		slog.String("request_id", reqID),
		slog.String("table", tbl.Key),
		slog.Int("rows", len(tbl.Rows)),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", tbl.Key))

	if err := exporter.NewCSVWriter(true).WriteTable(w, tbl); err != nil {
		// Headers are already out, all we can do is log.
		h.logger.ErrorContext(ctx, "failed to stream csv export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		return
	}

	infrastructure.RecordExport(ctx, h.metrics, "csv", tbl.Key)
}

// DownloadWorkbook handles GET /api/export/workbook.xlsx: one sheet
// per aggregate table.
func (h *ExportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	data, ok := h.exportData(w, r)
	if !ok {
		return
	}

	tables := exporter.BuildAggregateTables(data)

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"export.format": "xlsx",
		"export.sheets": len(tables),
	})
	h.logger.InfoContext(ctx, "exporting workbook",
		slog.String("request_id", reqID),
		slog.Int("sheets", len(tables)),
	)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename=washpulse_export.xlsx`)

	if err := exporter.WriteWorkbook(w, tables); err != nil {
		h.logger.ErrorContext(ctx, "failed to stream workbook export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		return
	}

	infrastructure.RecordExport(ctx, h.metrics, "xlsx", "workbook")
}

// exportData parses the filter and assembles the filtered record sets.
// On failure it writes the error response and returns ok=false.
func (h *ExportHandler) exportData(w http.ResponseWriter, r *http.Request) (exporter.ExportData, bool) {
	ctx := r.Context()

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return exporter.ExportData{}, false
	}

	data, err := h.service.ExportData(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to assemble export data",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(ctx)),
		)

		if errors.Is(err, services.ErrTooManySites) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"TOO_MANY_SITES",
				err.Error(),
			))
			return exporter.ExportData{}, false
		}

		h.errorHandler.HandleError(w, r, err)
		return exporter.ExportData{}, false
	}

	return data, true
}
