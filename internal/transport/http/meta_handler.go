package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// MetaHandler serves GET /api/meta, the view behind the filter
// sidebar: date bounds, site list and the default selection.
type MetaHandler struct {
	service MetaProvider
	logger  *slog.Logger
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(service MetaProvider, logger *slog.Logger) *MetaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetaHandler{
		service: service,
		logger:  logger.With(slog.String("component", "meta_handler")),
	}
}

// Routes returns the meta routes.
func (h *MetaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetMeta)

	return r
}

// GetMeta handles GET /api/meta. An empty snapshot is a valid state
// and reports no_data rather than an error.
func (h *MetaHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "describing loaded datasets",
		slog.String("request_id", reqID),
	)

	view := h.service.Meta(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}
