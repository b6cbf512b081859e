package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"

	"evinsights/internal/config"
	"evinsights/internal/infrastructure"
	"evinsights/pkg/contracts"
)

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService answers the health, readiness and stats endpoints from
// the state of the dataset cache and the source files on disk.
type HealthService struct {
	version   string
	paths     *config.Paths
	datasets  *DatasetService
	hub       ClientCounter
	collector *infrastructure.SystemMetricsCollector
	clock     clockwork.Clock
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the body served by the health endpoints.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth is one component's line in the health report.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// DatasetStatus describes the cached snapshot for health reporting.
type DatasetStatus struct {
	Loaded      bool      `json:"loaded"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	AgeSeconds  float64   `json:"age_seconds,omitempty"`
	GeoRows     int       `json:"geo_rows"`
	ConcernRows int       `json:"concern_rows"`
}

// SystemStats summarizes the process and the loaded dataset for the
// stats endpoint.
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	GeoRows          int     `json:"geo_rows"`
	ConcernRows      int     `json:"concern_rows"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies.
// The hub and collector may be nil; the matching sections are then omitted
// from reports.
func NewHealthService(version string, paths *config.Paths, datasets *DatasetService, hub ClientCounter, collector *infrastructure.SystemMetricsCollector, clock clockwork.Clock, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version))

	return &HealthService{
		version:   version,
		paths:     paths,
		datasets:  datasets,
		hub:       hub,
		collector: collector,
		clock:     clock,
		startTime: clock.Now(),
		logger:    logger,
	}
}

// HealthCheck answers "is the process up": always ok once the service
// exists. Readiness is the stricter check.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", hs.clock.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: hs.clock.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the service can produce a dashboard:
// source files present and a snapshot loadable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: hs.clock.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["data_files"] = hs.checkDataFiles()
	status.Services["snapshot"] = hs.checkSnapshot(ctx)
	status.Services["websocket"] = hs.checkWebSocket()

	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck reports the process is alive with basic runtime figures.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: hs.clock.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     hs.clock.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns the running version plus build and platform details.
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      hs.version,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"data_format":  info.DataFormat,
		"api_version":  info.APIVersion,
		"uptime":       hs.clock.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": hs.clock.Now().Format(time.RFC3339),
	}
}

// DatasetStatus reports on the cached snapshot without forcing a load.
func (hs *HealthService) DatasetStatus(ctx context.Context) DatasetStatus {
	snap := hs.datasets.Current()
	if snap == nil {
		return DatasetStatus{Loaded: false}
	}
	return DatasetStatus{
		Loaded:      true,
		LoadedAt:    snap.LoadedAt,
		AgeSeconds:  hs.clock.Now().UTC().Sub(snap.LoadedAt).Seconds(),
		GeoRows:     len(snap.Zips),
		ConcernRows: len(snap.Concerns),
	}
}

// SystemStats collects uptime, platform and dataset row counts.
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: hs.clock.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if snap := hs.datasets.Current(); snap != nil {
		stats.GeoRows = len(snap.Zips)
		stats.ConcernRows = len(snap.Concerns)
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}

	return stats, nil
}

// checkDataFiles verifies the source CSVs are present.
func (hs *HealthService) checkDataFiles() ServiceHealth {
	if err := hs.paths.ValidateRequiredFiles(); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: err.Error(),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "Source data files present",
	}
}

// checkSnapshot verifies a dataset snapshot can be served.
func (hs *HealthService) checkSnapshot(ctx context.Context) ServiceHealth {
	snap, err := hs.datasets.Snapshot(ctx)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Snapshot load failed: %v", err),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("Snapshot loaded: %d ZIPs, %d concern rows", len(snap.Zips), len(snap.Concerns)),
	}
}

// checkWebSocket checks WebSocket hub availability.
func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "WebSocket hub not initialized",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  hs.clock.Since(hs.startTime).String(),
	}
}

// GetDetailedHealth combines every report into one document for the
// stats endpoint and diagnostics.
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	detail := map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"dataset":   hs.DatasetStatus(ctx),
		"stats":     stats,
	}

	if hs.collector != nil {
		if sysStats := hs.collector.GetCurrentStats(ctx); sysStats != nil {
			detail["system"] = sysStats.FormatStats()
		}
	}

	return detail
}
