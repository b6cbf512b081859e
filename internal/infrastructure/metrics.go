package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset and export pipeline. Request-level metrics are recorded through
// OpenTelemetry by the HTTP middleware; these cover domain events.
type Metrics struct {
	DatasetLoads        *prometheus.CounterVec // labels: dataset={geo,concerns}, outcome={success,error}
	DatasetLoadDuration prometheus.Histogram
	DatasetRows         *prometheus.GaugeVec // labels: dataset={geo,concerns}

	Exports *prometheus.CounterVec // labels: format={csv,xlsx}, outcome={success,error}

	Refreshes        prometheus.Counter
	WebSocketClients prometheus.Gauge
}

// NewMetrics creates and registers all domain metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evinsights",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evinsights",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a complete load of both CSV datasets.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "evinsights",
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded snapshot by dataset.",
		}, []string{"dataset"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evinsights",
			Name:      "exports_total",
			Help:      "Report exports by format and outcome.",
		}, []string{"format", "outcome"}),
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evinsights",
			Name:      "data_refreshes_total",
			Help:      "Manual data refreshes requested through the API.",
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evinsights",
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
	}

	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.DatasetRows,
		m.Exports,
		m.Refreshes,
		m.WebSocketClients,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evinsights", Name: "dataset_loads_total"}, []string{"dataset", "outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evinsights", Name: "dataset_load_duration_seconds"}),
		DatasetRows:         prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "evinsights", Name: "dataset_rows"}, []string{"dataset"}),
		Exports:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evinsights", Name: "exports_total"}, []string{"format", "outcome"}),
		Refreshes:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evinsights", Name: "data_refreshes_total"}),
		WebSocketClients:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "evinsights", Name: "websocket_clients"}),
	}
}
