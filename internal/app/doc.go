// Package app assembles the EV Market Insights server. NewApplication
// loads configuration, brings up logging and OpenTelemetry, resolves the
// dataset paths, builds the services and wires them into the chi router;
// Run starts the HTTP server and blocks until shutdown.
//
// Missing source CSVs are a startup warning, not an error: the server
// comes up, reports itself unready, and answers with problem responses
// until the files appear and a refresh succeeds.
//
// # Shutdown
//
// Run traps SIGINT and SIGTERM. On the first signal it stops accepting
// connections, drains in-flight requests within the configured shutdown
// timeout, closes the WebSocket hub and flushes telemetry. Errors from
// initialization and shutdown are returned to main rather than exiting
// from inside the package.
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
