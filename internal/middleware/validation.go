package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "evinsights/internal/errors"
)

// ValidationMiddleware checks request bodies and filter DTOs against their
// struct tags before handlers touch them.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware builds the validator with the statefilter rule
// registered and JSON tag names in error messages.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	v.RegisterValidation("statefilter", isValidStateFilter)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  1 * 1024 * 1024, // requests here are filters and refresh triggers
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies before they
// reach a handler. Read bodies are restored so handlers can decode them.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if err := m.checkBody(r); err != nil {
			m.logger.WarnContext(r.Context(), "request body rejected",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			m.errorHandler.HandleError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkBody buffers the request body, replaces it with a rewindable copy,
// and returns an API error when it is oversized or not JSON.
func (m *ValidationMiddleware) checkBody(r *http.Request) error {
	if r.ContentLength > m.maxBodySize {
		return apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE",
			"Request body exceeds maximum allowed size",
			map[string]interface{}{
				"max_size": m.maxBodySize,
				"size":     r.ContentLength,
			},
		)
	}

	if r.Body == nil || r.ContentLength <= 0 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
	if err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) > 0 && !json.Valid(body) {
		return apierrors.New(
			http.StatusBadRequest,
			"INVALID_JSON",
			"Request body contains invalid JSON",
		)
	}
	return nil
}

// ValidateStruct runs tag validation on a bound DTO and converts the
// failures into the API's validation error shape.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// messageFor renders a readable message for a failed constraint. Only the
// tags the filter DTOs carry get bespoke wording.
func messageFor(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "statefilter":
		return fmt.Sprintf("%s must be ALL or a 2-letter state code", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isValidStateFilter accepts the ALL sentinel or a 2-letter USPS state
// code. Case folding happens later in the filter normalizer, so both
// "tx" and "TX" pass here.
func isValidStateFilter(fl validator.FieldLevel) bool {
	state := fl.Field().String()
	if strings.EqualFold(state, "ALL") {
		return true
	}
	if len(state) != 2 {
		return false
	}
	for _, ch := range state {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')) {
			return false
		}
	}
	return true
}

// ContentTypeValidator rejects write requests whose Content-Type is not in
// the allowed list. Body-less POSTs (the refresh trigger) pass without one.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete:
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				if r.ContentLength <= 0 {
					next.ServeHTTP(w, r)
					return
				}
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, apierrors.New(
					http.StatusBadRequest,
					"MISSING_CONTENT_TYPE",
					"Content-Type header is required",
				))
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// QueryParamValidator validates query parameters that bypass struct
// binding, writing the validation problem itself on failure.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator.
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt parses an integer parameter and enforces its bounds. Returns
// the default when the parameter is absent; false means the response has
// already been written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be a valid integer", param))
		return 0, false
	}
	if n < min || n > max {
		v.reject(w, r, param, fmt.Sprintf("%s must be between %d and %d", param, min, max))
		return 0, false
	}
	return n, true
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, param, message string) {
	v.logger.DebugContext(r.Context(), "query parameter rejected",
		slog.String("param", param),
		slog.String("reason", message),
	)
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, message))
}
