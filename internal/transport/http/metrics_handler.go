package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus scrape endpoint. Both the domain
// counters and the OTel prometheus exporter feed the default registry, so
// one handler serves them all.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
