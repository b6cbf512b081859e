package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "evinsights/internal/errors"
	apiv1 "evinsights/pkg/contracts/api/v1"
)

// RefreshHandler triggers dataset reloads on operator request
type RefreshHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RefreshHandler {
	return &RefreshHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "refresh_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the refresh routes
func (h *RefreshHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Refresh)
	return r
}

// Refresh handles POST /api/refresh. The body is optional; when present
// it may carry a reason that ends up in the broadcast event and logs.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req apiv1.RefreshRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "refresh requested",
		slog.String("request_id", reqID),
		slog.String("reason", req.Reason),
	)

	snap, err := h.service.Refresh(r.Context(), req.Reason)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "refresh failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"loaded_at":    snap.LoadedAt,
			"geo_rows":     len(snap.Zips),
			"concern_rows": len(snap.Concerns),
		},
	})
}
