package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Dataset-specific errors (using errors package for sentinel errors)
var (
	ErrDatasetNotFound  = errors.New("dataset file not found")
	ErrDatasetMalformed = errors.New("dataset malformed")
	ErrEmptyDataset     = errors.New("dataset contains no rows")
	ErrExportFailed     = errors.New("export failed")
)

// ParseError carries the location of a malformed value inside a dataset
// file. It wraps ErrDatasetMalformed so callers can classify it with
// errors.Is while still reaching the details with errors.As.
type ParseError struct {
	File   string
	Row    int
	Column string
	Cause  error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: row %d, column %q: %v", e.File, e.Row, e.Column, e.Cause)
	}
	return fmt.Sprintf("%s: row %d: %v", e.File, e.Row, e.Cause)
}

// Unwrap reports the error as a malformed-dataset error
func (e *ParseError) Unwrap() error {
	return ErrDatasetMalformed
}

// NewParseError creates a parse error for a specific file location
func NewParseError(file string, row int, column string, cause error) *ParseError {
	return &ParseError{
		File:   file,
		Row:    row,
		Column: column,
		Cause:  cause,
	}
}

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	// Add standard fields
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	// Add extensions
	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// DataProblem maps the dataset sentinels onto problem responses. It
// returns nil for errors outside the dataset taxonomy so the caller can
// apply its own fallback.
func DataProblem(err error, instance string) *ProblemDetails {
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		return NewProblemDetails(http.StatusNotFound, TypeDataNotFound,
			"Dataset Not Found", err.Error(), instance).
			WithExtension("error_code", "DATASET_NOT_FOUND").
			WithExtension("hint", "Place the CSV files in the configured data directory and refresh.")

	case errors.Is(err, ErrDatasetMalformed):
		problem := NewProblemDetails(http.StatusUnprocessableEntity, TypeDataMalformed,
			"Dataset Malformed", err.Error(), instance).
			WithExtension("error_code", "DATASET_MALFORMED")

		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			problem.WithExtension("file", parseErr.File).
				WithExtension("row", parseErr.Row)
			if parseErr.Column != "" {
				problem.WithExtension("column", parseErr.Column)
			}
		}
		return problem

	case errors.Is(err, ErrEmptyDataset):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeDataMalformed,
			"Dataset Empty", err.Error(), instance).
			WithExtension("error_code", "DATASET_EMPTY")

	case errors.Is(err, ErrExportFailed):
		return NewProblemDetails(http.StatusInternalServerError, TypeExportFailed,
			"Export Failed", "Unable to generate the requested export. Please try again.", instance).
			WithExtension("error_code", "EXPORT_FAILED")
	}

	return nil
}
