package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetricsCollector samples Go runtime statistics on a fixed
// interval and records them as OTel instruments. The health endpoints
// read the same snapshot through GetCurrentStats.
type SystemMetricsCollector struct {
	startTime time.Time
	interval  time.Duration

	goroutines metric.Int64Gauge
	heapBytes  metric.Int64Gauge
	allocTotal metric.Int64Gauge
	sysBytes   metric.Int64Gauge
	gcPause    metric.Float64Histogram
	uptime     metric.Float64Gauge
}

// NewSystemMetricsCollector registers the runtime instruments on meter.
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	reg := instrumentSet{meter: meter}
	smc := &SystemMetricsCollector{
		startTime:  time.Now(),
		interval:   interval,
		goroutines: reg.int64Gauge("system_goroutines", "Number of active goroutines", ""),
		heapBytes:  reg.int64Gauge("system_memory_usage_bytes", "Memory usage in bytes", "By"),
		allocTotal: reg.int64Gauge("system_memory_allocated_bytes", "Memory allocated by Go runtime in bytes", "By"),
		sysBytes:   reg.int64Gauge("system_memory_system_bytes", "Memory obtained from the OS in bytes", "By"),
		gcPause:    reg.float64Histogram("system_gc_pause_seconds", "Garbage collection pause duration", "s"),
		uptime:     reg.float64Gauge("system_process_uptime_seconds", "Process uptime in seconds", "s"),
	}
	if reg.err != nil {
		return nil, fmt.Errorf("register runtime instruments: %w", reg.err)
	}
	return smc, nil
}

// SystemStats is one sample of the runtime counters.
type SystemStats struct {
	GoRoutines      int64
	MemoryUsage     int64
	MemoryAllocated int64
	MemorySystem    int64
	GCCount         uint32
	LastGCPause     time.Duration
	CPUCount        int
	ProcessUptime   time.Duration
	Timestamp       time.Time
}

// Start samples immediately, then on every tick until ctx is canceled.
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	smc.collect(ctx)
	for {
		select {
		case <-ticker.C:
			smc.collect(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// GetCurrentStats takes a fresh sample outside the ticker loop.
func (smc *SystemMetricsCollector) GetCurrentStats(ctx context.Context) *SystemStats {
	return smc.collect(ctx)
}

func (smc *SystemMetricsCollector) collect(ctx context.Context) *SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := &SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryUsage:     int64(mem.Alloc),
		MemoryAllocated: int64(mem.TotalAlloc),
		MemorySystem:    int64(mem.Sys),
		GCCount:         mem.NumGC,
		LastGCPause:     time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:        runtime.NumCPU(),
		ProcessUptime:   time.Since(smc.startTime),
		Timestamp:       time.Now(),
	}

	smc.goroutines.Record(ctx, stats.GoRoutines)
	smc.heapBytes.Record(ctx, stats.MemoryUsage)
	smc.allocTotal.Record(ctx, stats.MemoryAllocated)
	smc.sysBytes.Record(ctx, stats.MemorySystem)
	smc.uptime.Record(ctx, stats.ProcessUptime.Seconds())
	if stats.LastGCPause > 0 {
		smc.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// FormatStats renders the sample as the nested map the health detail
// endpoint embeds.
func (stats *SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"runtime": map[string]interface{}{
			"goroutines":       stats.GoRoutines,
			"memory_usage_mb":  stats.MemoryUsage / 1024 / 1024,
			"memory_alloc_mb":  stats.MemoryAllocated / 1024 / 1024,
			"memory_system_mb": stats.MemorySystem / 1024 / 1024,
			"gc_count":         stats.GCCount,
			"last_gc_pause_ms": stats.LastGCPause.Milliseconds(),
		},
		"system": map[string]interface{}{
			"cpu_count":      stats.CPUCount,
			"uptime_seconds": stats.ProcessUptime.Seconds(),
		},
		"timestamp": stats.Timestamp.Format(time.RFC3339),
	}
}
