// Package services holds the business rules of the dashboard, between
// the HTTP handlers above and the dataprocessing primitives below.
//
// DatasetService owns the loaded CSV snapshot. It refreshes on demand,
// collapses concurrent refresh requests into a single load, and notifies
// subscribers when the snapshot changes. DashboardService derives
// everything a request needs from that snapshot: the filtered
// view-model, ranked ZIPs, concern summaries, recommendations and the
// export payloads. HealthService reports liveness and whether a usable
// snapshot is present.
//
// Service methods take a context.Context and return explicit errors.
// Dataset failures pass through unchanged as the sentinel errors and
// ParseError values from the errors package, so handlers can classify
// them into problem responses without matching on message text.
package services
