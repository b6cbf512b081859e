// Package http carries the HTTP handlers for the EV Market Insights
// dashboard. Handlers stay thin: each parses and validates its request,
// then hands the work to a service. The response is either the service
// result rendered as JSON or an RFC 7807 problem describing the failure.
// The aggregation and ranking rules themselves live in the services
// layer, never here.
//
// # Request Flow
//
//	chi router → middleware → handler → service → dataset snapshot
//
// and the response walks back out through the same handler, as a JSON
// view-model or a problem+json body.
//
// # Handlers
//
// DashboardHandler serves the filtered dashboard view-model and its
// sub-resources (ranked ZIPs, concern summaries, recommendations).
// ExportHandler streams the CSV downloads and the Excel campaign brief.
// RefreshHandler triggers a dataset reload. HealthHandler exposes the
// health, readiness, and version endpoints. ServeMainApp renders the
// embedded single-page frontend.
//
// # Errors
//
// Failures render as RFC 7807 problem details:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "Dataset Not Found",
//	    "status": 404,
//	    "detail": "ev_geo_data.csv: no such file",
//	    "instance": "/api/dashboard"
//	}
//
// Handler tests drive the routes with httptest against mock services and
// assert on both the success payloads and the problem classifications.
package http
