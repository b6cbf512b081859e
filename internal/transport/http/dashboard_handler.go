package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"evinsights/internal/config"
	apierrors "evinsights/internal/errors"
	"evinsights/internal/infrastructure"
	custommw "evinsights/internal/middleware"
	apiv1 "evinsights/pkg/contracts/api/v1"
	"evinsights/pkg/contracts/domain"
)

// DashboardHandler handles dashboard HTTP requests with RFC 7807 compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	validation   *custommw.ValidationMiddleware
	query        *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, validation *custommw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validation:   validation,
		query:        custommw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/zips/top", h.GetTopZips)
	r.Get("/concerns", h.GetConcerns)
	r.Get("/recommendations", h.GetRecommendations)

	return r
}

// bindFilter binds the state/city/top query parameters into a filter.
// A request with none of the parameters gets the configured default view;
// a partial set keeps the missing selectors open. Writes a validation
// problem and returns false when the parameters are unusable.
func bindFilter(w http.ResponseWriter, r *http.Request, service DashboardServiceInterface, validation *custommw.ValidationMiddleware, query *custommw.QueryParamValidator, errorHandler *apierrors.ErrorHandler) (domain.Filter, bool) {
	q := r.URL.Query()

	if !q.Has("state") && !q.Has("city") && !q.Has("top") {
		return service.DefaultFilter(), true
	}

	top, ok := query.ValidateInt(w, r, "top", config.MinTopN, config.MaxTopN, 0)
	if !ok {
		return domain.Filter{}, false
	}

	req := apiv1.DashboardRequest{
		State: q.Get("state"),
		City:  q.Get("city"),
		Top:   top,
	}

	if err := validation.ValidateStruct(req); err != nil {
		errorHandler.HandleError(w, r, err)
		return domain.Filter{}, false
	}

	return domain.Filter{State: req.State, City: req.City, TopN: req.Top}, true
}

func (h *DashboardHandler) parseFilter(w http.ResponseWriter, r *http.Request) (domain.Filter, bool) {
	return bindFilter(w, r, h.service, h.validation, h.query, h.errorHandler)
}

// GetDashboard handles GET /api/dashboard with RFC 7807 errors
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	infrastructure.SetSpanAttributes(r.Context(), map[string]interface{}{
		"filter.state": filter.State,
		"filter.city":  filter.City,
		"filter.top":   filter.TopN,
	})
	h.logger.InfoContext(r.Context(), "building dashboard view",
		slog.String("request_id", reqID),
		slog.String("state", filter.State),
		slog.String("city", filter.City),
		slog.Int("top", filter.TopN),
	)

	view, err := h.service.View(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build dashboard view",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetTopZips handles GET /api/zips/top with RFC 7807 errors
func (h *DashboardHandler) GetTopZips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	zips, err := h.service.TopZips(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to rank zips",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   zips,
		"count":  len(zips),
	})
}

// GetConcerns handles GET /api/concerns with RFC 7807 errors
func (h *DashboardHandler) GetConcerns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	concerns, err := h.service.ConcernSummaries(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to aggregate concerns",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   concerns,
		"count":  len(concerns),
	})
}

// GetRecommendations handles GET /api/recommendations with RFC 7807 errors.
// The recommendations ride on the full view-model; this endpoint carves
// them out for clients that only want the guidance block.
func (h *DashboardHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate recommendations",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"recommendations": view.Recommendations,
			"talking_points":  view.TalkingPoints,
		},
		"count": len(view.Recommendations),
	})
}
