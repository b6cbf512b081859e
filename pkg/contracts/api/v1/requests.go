// Package api contains API contract definitions for the EV Market Insights
// service. Version v1 represents the current stable API version.
package api

// Filter parameter DTOs. GET endpoints bind their query strings into these
// structs and validate them before any data work happens.

// DashboardRequest represents the filter parameters shared by the dashboard
// and analytics endpoints. State and City accept "ALL" to disable the
// filter; Top is the ranked-table depth exposed by the UI slider.
type DashboardRequest struct {
	State string `json:"state" query:"state" validate:"omitempty,statefilter"`
	City  string `json:"city" query:"city" validate:"omitempty,max=100"`
	Top   int    `json:"top" query:"top" validate:"omitempty,min=3,max=10"`
}

// TopZipsRequest represents the parameters for the ranked ZIP endpoint and
// the table exports. Identical bounds to DashboardRequest.
type TopZipsRequest struct {
	State string `json:"state" query:"state" validate:"omitempty,statefilter"`
	City  string `json:"city" query:"city" validate:"omitempty,max=100"`
	Top   int    `json:"top" query:"top" validate:"omitempty,min=3,max=10"`
}

// RefreshRequest represents an explicit data reload request. Reason is
// optional operator context that ends up in the broadcast event and logs.
type RefreshRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=200"`
}
