package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"evinsights/internal/config"
	"evinsights/internal/dataprocessing"
	"evinsights/internal/infrastructure"
	"evinsights/pkg/contracts/domain"
	"evinsights/pkg/contracts/events"
)

// WebSocketHub is the broadcast surface the services need from the
// WebSocket layer.
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// DatasetService loads the source CSVs and caches the resulting snapshot.
// The snapshot is immutable once published; a refresh builds a new one and
// swaps the pointer, so readers never see partial data. Concurrent
// refreshes collapse into a single load.
type DatasetService struct {
	paths   *config.Paths
	logger  *slog.Logger
	clock   clockwork.Clock
	metrics *infrastructure.Metrics
	hub     WebSocketHub

	group singleflight.Group

	mu       sync.RWMutex
	snapshot *domain.Snapshot
}

// NewDatasetService creates a dataset service. The hub may be nil when no
// change notifications are wanted, as in the offline report tool.
func NewDatasetService(paths *config.Paths, logger *slog.Logger, clock clockwork.Clock, metrics *infrastructure.Metrics, hub WebSocketHub) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logger.Info("DatasetService initialized",
		slog.String("geo_file", paths.GeoCSV),
		slog.String("concerns_file", paths.ConcernsCSV))

	return &DatasetService{
		paths:   paths,
		logger:  logger,
		clock:   clock,
		metrics: metrics,
		hub:     hub,
	}
}

// Snapshot returns the current dataset, loading it on first use. The
// returned snapshot is shared and must not be mutated.
func (s *DatasetService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap != nil {
		return snap, nil
	}
	return s.reload(ctx, "")
}

// Refresh re-reads both source files and publishes the new snapshot.
// Connected dashboards are notified over the WebSocket hub. The reason is
// carried in the notification for display.
func (s *DatasetService) Refresh(ctx context.Context, reason string) (*domain.Snapshot, error) {
	if reason == "" {
		reason = "manual refresh"
	}
	return s.reload(ctx, reason)
}

// Current returns the cached snapshot without triggering a load, or nil
// when nothing has been loaded yet. Health checks use this to report on
// the cache without touching the filesystem.
func (s *DatasetService) Current() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// reload collapses concurrent callers into one load. Only the call that
// initiates the load decides whether a notification goes out; a refresh
// piggybacking on an in-flight initial load gets the fresh snapshot but
// no broadcast.
func (s *DatasetService) reload(ctx context.Context, notifyReason string) (*domain.Snapshot, error) {
	v, err, _ := s.group.Do("reload", func() (interface{}, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.snapshot = snap
		s.mu.Unlock()

		if notifyReason != "" {
			s.metrics.Refreshes.Inc()
			s.notifyRefreshed(snap, notifyReason)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

// load reads both source files concurrently and assembles the snapshot.
func (s *DatasetService) load(ctx context.Context) (*domain.Snapshot, error) {
	start := s.clock.Now()

	var (
		zips     []domain.ZipRecord
		concerns []domain.ConcernRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := dataprocessing.LoadZipRecords(gctx, s.paths.GeoCSV)
		s.observeLoad("geo", err)
		if err != nil {
			return err
		}
		zips = records
		s.metrics.DatasetRows.WithLabelValues("geo").Set(float64(len(records)))
		return nil
	})
	g.Go(func() error {
		records, err := dataprocessing.LoadConcernRecords(gctx, s.paths.ConcernsCSV)
		s.observeLoad("concerns", err)
		if err != nil {
			return err
		}
		concerns = records
		s.metrics.DatasetRows.WithLabelValues("concerns").Set(float64(len(records)))
		return nil
	})

	err := g.Wait()
	s.metrics.DatasetLoadDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("error", err.Error()))
		return nil, err
	}

	snap := &domain.Snapshot{
		Zips:         zips,
		Concerns:     concerns,
		LoadedAt:     s.clock.Now().UTC(),
		GeoFile:      s.paths.GeoCSV,
		ConcernsFile: s.paths.ConcernsCSV,
	}

	infrastructure.AddSpanEvent(ctx, "dataset.loaded", map[string]interface{}{
		"geo_rows":     len(zips),
		"concern_rows": len(concerns),
	})
	s.logger.InfoContext(ctx, "dataset snapshot loaded",
		slog.Int("geo_rows", len(zips)),
		slog.Int("concern_rows", len(concerns)),
		slog.Duration("duration", s.clock.Since(start)))

	return snap, nil
}

func (s *DatasetService) observeLoad(dataset string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.DatasetLoads.WithLabelValues(dataset, outcome).Inc()
}

func (s *DatasetService) notifyRefreshed(snap *domain.Snapshot, reason string) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(string(events.MessageTypeDataRefreshed), events.DataRefreshedEvent{
		RefreshedAt: snap.LoadedAt,
		Reason:      reason,
		GeoRows:     len(snap.Zips),
		ConcernRows: len(snap.Concerns),
	})
}

// LoadedAt returns when the cached snapshot was built, or false when no
// snapshot is loaded.
func (s *DatasetService) LoadedAt() (time.Time, bool) {
	snap := s.Current()
	if snap == nil {
		return time.Time{}, false
	}
	return snap.LoadedAt, true
}
