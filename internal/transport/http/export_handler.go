package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"evinsights/internal/config"
	apierrors "evinsights/internal/errors"
	"evinsights/internal/exporter"
	"evinsights/internal/infrastructure"
	custommw "evinsights/internal/middleware"
	"evinsights/pkg/contracts/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams dashboard downloads: the ranked ZIP table and
// concern summary as CSV, and the campaign brief workbook as xlsx.
type ExportHandler struct {
	service      DashboardServiceInterface
	validation   *custommw.ValidationMiddleware
	query        *custommw.QueryParamValidator
	metrics      *infrastructure.Metrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service DashboardServiceInterface, validation *custommw.ValidationMiddleware, metrics *infrastructure.Metrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validation:   validation,
		query:        custommw.NewQueryParamValidator(logger, errorHandler),
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/zips", h.ExportTopZips)
	r.Get("/concerns", h.ExportConcerns)
	r.Get("/brief", h.ExportBrief)

	return r
}

// ExportTopZips handles GET /api/export/zips, streaming the ranked table
// as CSV under the same filename the offline report tool writes.
func (h *ExportHandler) ExportTopZips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	zips, err := h.service.TopZips(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to rank zips for export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.observeExport("csv", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "exporting top zips",
		slog.String("request_id", reqID),
		slog.Int("rows", len(zips)),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", config.TopZipsFileName))

	// Headers are committed once streaming starts; failures past this
	// point can only be logged.
	if err := exporter.StreamTopZips(w, zips); err != nil {
		h.logger.ErrorContext(r.Context(), "top zips stream aborted",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		custommw.RecordSystemError(r.Context(), "export_stream_failed", "export_handler")
		h.observeExport("csv", err)
		return
	}

	h.observeExport("csv", nil)
}

// ExportConcerns handles GET /api/export/concerns
func (h *ExportHandler) ExportConcerns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	concerns, err := h.service.ConcernSummaries(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to aggregate concerns for export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.observeExport("csv", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", config.ConcernSummaryFileName))

	if err := exporter.StreamConcernSummary(w, concerns); err != nil {
		h.logger.ErrorContext(r.Context(), "concern summary stream aborted",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		custommw.RecordSystemError(r.Context(), "export_stream_failed", "export_handler")
		h.observeExport("csv", err)
		return
	}

	h.observeExport("csv", nil)
}

// ExportBrief handles GET /api/export/brief, building the campaign brief
// workbook in memory and streaming it to the client.
func (h *ExportHandler) ExportBrief(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	brief, err := h.service.Brief(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to assemble campaign brief",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.observeExport("xlsx", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	f, err := exporter.BuildCampaignBrief(*brief)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build workbook",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.observeExport("xlsx", err)
		h.errorHandler.HandleError(w, r, fmt.Errorf("%w: %v", apierrors.ErrExportFailed, err))
		return
	}
	defer f.Close()

	h.logger.InfoContext(r.Context(), "exporting campaign brief",
		slog.String("request_id", reqID),
		slog.Int("top_zips", len(brief.TopZips)),
	)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", config.CampaignBriefFileName))

	if err := f.Write(w); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook stream aborted",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		custommw.RecordSystemError(r.Context(), "export_stream_failed", "export_handler")
		h.observeExport("xlsx", err)
		return
	}

	h.observeExport("xlsx", nil)
}

// parseFilter mirrors the dashboard handler's binding: exports always
// refer to some filtered view, defaulting like the dashboard does.
func (h *ExportHandler) parseFilter(w http.ResponseWriter, r *http.Request) (domain.Filter, bool) {
	return bindFilter(w, r, h.service, h.validation, h.query, h.errorHandler)
}

func (h *ExportHandler) observeExport(format string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	h.metrics.Exports.WithLabelValues(format, outcome).Inc()
}
