package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// RefreshHandler serves POST /api/refresh.
type RefreshHandler struct {
	service SnapshotRefresher
	logger  *slog.Logger
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(service SnapshotRefresher, logger *slog.Logger) *RefreshHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshHandler{
		service: service,
		logger:  logger.With(slog.String("component", "refresh_handler")),
	}
}

// Routes returns the refresh routes.
func (h *RefreshHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Refresh)

	return r
}

// Refresh handles POST /api/refresh. It reloads the snapshot through
// the strategy chain, notifies open dashboards over the websocket hub
// and reports what was loaded. Per-dataset load failures come back as
// issues, not as an error status.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	h.logger.InfoContext(ctx, "forcing snapshot refresh",
		slog.String("request_id", reqID),
	)

	snap := h.service.ForceRefresh(ctx)

	h.logger.InfoContext(ctx, "snapshot refreshed",
		slog.String("request_id", reqID),
		slog.String("source", snap.Source),
		slog.Int("issues", len(snap.Issues)),
	)

	render.JSON(w, r, map[string]interface{}{
		"status":               "success",
		"source":               snap.Source,
		"loaded_at":            snap.LoadedAt,
		"wash_records":         len(snap.Wash),
		"subscription_records": len(snap.Subscriptions),
		"sales_records":        len(snap.Sales),
		"issues":               snap.Issues,
	})
}
