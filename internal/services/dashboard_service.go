package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"evinsights/internal/config"
	"evinsights/internal/dataprocessing"
	"evinsights/internal/exporter"
	"evinsights/internal/insights"
	"evinsights/pkg/contracts/domain"
)

// DashboardService assembles the filtered dashboard view-model and the
// export payloads from the cached dataset snapshot. All of its work is
// derivation; the snapshot itself is owned by the DatasetService.
type DashboardService struct {
	datasets *DatasetService
	cfg      config.DashboardConfig
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(datasets *DatasetService, cfg config.DashboardConfig, clock clockwork.Clock, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DashboardService{
		datasets: datasets,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// DefaultFilter returns the filter the dashboard opens with.
func (s *DashboardService) DefaultFilter() domain.Filter {
	return domain.Filter{
		State: s.cfg.DefaultState,
		City:  s.cfg.DefaultCity,
		TopN:  s.cfg.DefaultTopN,
	}
}

// normalizeFilter fills empty selectors and clamps the ranking size into
// the configured range. API requests are validated before they get here;
// the clamp covers internal callers.
func (s *DashboardService) normalizeFilter(f domain.Filter) domain.Filter {
	f = f.Normalized()
	if f.TopN == 0 {
		f.TopN = s.cfg.DefaultTopN
	}
	if f.TopN < s.cfg.MinTopN {
		f.TopN = s.cfg.MinTopN
	}
	if f.TopN > s.cfg.MaxTopN {
		f.TopN = s.cfg.MaxTopN
	}
	return f
}

func (s *DashboardService) thresholds() insights.Thresholds {
	return insights.Thresholds{
		ChargingGapStations: s.cfg.ChargingGapStations,
		ChargingGapIncome:   s.cfg.ChargingGapIncome,
		LowEVShare:          s.cfg.LowEVShare,
	}
}

// View builds the complete dashboard view-model for one filter: summary,
// map, ranked ZIPs, aggregated concerns, and generated guidance in a
// single payload.
func (s *DashboardService) View(ctx context.Context, filter domain.Filter) (*domain.DashboardView, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard view: %w", err)
	}

	filter = s.normalizeFilter(filter)

	zips := dataprocessing.FilterZips(snap.Zips, filter)
	concerns := dataprocessing.AggregateConcerns(dataprocessing.FilterConcerns(snap.Concerns, filter))
	summary := dataprocessing.Summarize(zips)
	topZips := dataprocessing.TopZips(zips, filter.TopN)

	view := &domain.DashboardView{
		Filter: filter,
		Options: domain.FilterOptions{
			States: dataprocessing.ListStates(snap.Zips),
			Cities: dataprocessing.ListCities(snap.Zips, filter.State),
		},
		Summary:         summary,
		MapPoints:       dataprocessing.MapPoints(zips),
		MapView:         dataprocessing.ComputeMapView(zips, filter),
		TopZips:         topZips,
		Concerns:        concerns,
		Recommendations: insights.Generate(summary, topZips, concerns, s.thresholds()),
		TalkingPoints:   insights.TalkingPointsFor(concerns, insights.DefaultTalkingPointLimit),
		LoadedAt:        snap.LoadedAt,
	}

	s.logger.DebugContext(ctx, "dashboard view assembled",
		slog.String("state", filter.State),
		slog.String("city", filter.City),
		slog.Int("top_n", filter.TopN),
		slog.Int("zips", len(zips)),
		slog.Int("concerns", len(concerns)))

	return view, nil
}

// TopZips returns the ranked ZIP records for one filter, for the CSV
// export endpoints.
func (s *DashboardService) TopZips(ctx context.Context, filter domain.Filter) ([]domain.ZipRecord, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("top zips: %w", err)
	}
	filter = s.normalizeFilter(filter)
	return dataprocessing.TopZips(dataprocessing.FilterZips(snap.Zips, filter), filter.TopN), nil
}

// ConcernSummaries returns the aggregated concerns for one filter.
func (s *DashboardService) ConcernSummaries(ctx context.Context, filter domain.Filter) ([]domain.ConcernSummary, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("concern summaries: %w", err)
	}
	filter = s.normalizeFilter(filter)
	return dataprocessing.AggregateConcerns(dataprocessing.FilterConcerns(snap.Concerns, filter)), nil
}

// Brief assembles the campaign brief export payload for one filter.
func (s *DashboardService) Brief(ctx context.Context, filter domain.Filter) (*exporter.CampaignBrief, error) {
	view, err := s.View(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &exporter.CampaignBrief{
		GeneratedAt:     s.clock.Now().UTC(),
		Filter:          view.Filter,
		Summary:         view.Summary,
		TopZips:         view.TopZips,
		Concerns:        view.Concerns,
		Recommendations: view.Recommendations,
		TalkingPoints:   view.TalkingPoints,
	}, nil
}
