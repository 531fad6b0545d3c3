package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "washpulse/internal/errors"
	"washpulse/internal/services"
	"washpulse/pkg/contracts/domain"
)

// filterDateLayout is the wire format for the from and to parameters.
const filterDateLayout = "2006-01-02"

// DashboardHandler serves the three chart endpoints with RFC 7807
// error responses.
type DashboardHandler struct {
	service      DashboardReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/washes", h.GetWashes)
	r.Get("/subscriptions", h.GetSubscriptions)
	r.Get("/sales", h.GetSales)

	return r
}

// GetWashes handles GET /api/dashboard/washes.
func (h *DashboardHandler) GetWashes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building wash view",
		slog.String("request_id", reqID),
		slog.Int("sites", len(filter.SiteIDs)),
	)

	view, err := h.service.Washes(r.Context(), filter)
	if err != nil {
		h.handleViewError(w, r, err, reqID, "washes")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetSubscriptions handles GET /api/dashboard/subscriptions.
func (h *DashboardHandler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building subscription view",
		slog.String("request_id", reqID),
		slog.Int("sites", len(filter.SiteIDs)),
	)

	view, err := h.service.Subscriptions(r.Context(), filter)
	if err != nil {
		h.handleViewError(w, r, err, reqID, "subscriptions")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetSales handles GET /api/dashboard/sales. The window parameter is
// accepted but has no effect on this view.
func (h *DashboardHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "building sales view",
		slog.String("request_id", reqID),
		slog.Int("sites", len(filter.SiteIDs)),
	)

	view, err := h.service.Sales(r.Context(), filter)
	if err != nil {
		h.handleViewError(w, r, err, reqID, "sales")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// handleViewError maps service errors onto API errors.
func (h *DashboardHandler) handleViewError(w http.ResponseWriter, r *http.Request, err error, reqID, dataset string) {
	h.logger.ErrorContext(r.Context(), "failed to build dashboard view",
		slog.String("error", err.Error()),
		slog.String("dataset", dataset),
		slog.String("request_id", reqID),
	)

	if errors.Is(err, services.ErrTooManySites) {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"TOO_MANY_SITES",
			err.Error(),
		))
		return
	}

	h.errorHandler.HandleError(w, r, err)
}

// parseRecordFilter reads the from, to, sites and window query
// parameters. Dates use YYYY-MM-DD; sites may be repeated or comma
// separated. Absent parameters stay zero so the service can fill in
// the defaults.
func parseRecordFilter(r *http.Request) (domain.RecordFilter, error) {
	var filter domain.RecordFilter
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return filter, apierrors.ErrValidation("from", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw))
		}
		filter.From = t
	}

	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return filter, apierrors.ErrValidation("to", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw))
		}
		filter.To = t
	}

	for _, raw := range q["sites"] {
		for _, site := range strings.Split(raw, ",") {
			if site = strings.TrimSpace(site); site != "" {
				filter.SiteIDs = append(filter.SiteIDs, site)
			}
		}
	}

	if raw := q.Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, apierrors.ErrValidation("window", fmt.Sprintf("Invalid window %q, expected a non-negative integer", raw))
		}
		filter.Window = n
	}

	return filter, nil
}
