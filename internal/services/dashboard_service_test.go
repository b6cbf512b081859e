package services

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinsights/internal/config"
	"evinsights/internal/shared/testutil"
	"evinsights/pkg/contracts/domain"
)

func newTestDashboardService(t *testing.T) (*DashboardService, *clockwork.FakeClock) {
	t.Helper()

	datasets, _, clock := newTestDatasetService(t, nil)
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardService(datasets, config.Default().Dashboard, clock, logger), clock
}

func TestDashboardService_View_CityFilter(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	view, err := svc.View(context.Background(), domain.Filter{State: "TX", City: "Austin", TopN: 5})
	require.NoError(t, err)

	assert.Equal(t, domain.Filter{State: "TX", City: "Austin", TopN: 5}, view.Filter)
	assert.Equal(t, testLoadTime, view.LoadedAt)

	// Summary over the five Austin ZIPs
	assert.Equal(t, 5, view.Summary.ZipCount)
	assert.InDelta(t, 1810, view.Summary.TotalPredictedSales, 0.001)
	assert.InDelta(t, 85000, view.Summary.MeanMedianIncome, 0.001)
	assert.InDelta(t, 78, view.Summary.MeanChargingStations, 0.001)
	assert.InDelta(t, 0.136, view.Summary.MeanEVShare, 0.0001)

	// Ranked by predicted sales, descending
	require.Len(t, view.TopZips, 5)
	assert.Equal(t, "78701", view.TopZips[0].Zip)
	assert.Equal(t, "78759", view.TopZips[1].Zip)
	assert.Equal(t, "78704", view.TopZips[2].Zip)

	// Concerns aggregated and ordered by mentions
	require.Len(t, view.Concerns, 5)
	assert.Equal(t, "Charging infrastructure", view.Concerns[0].Concern)
	assert.Equal(t, 180, view.Concerns[0].TotalMentions)
	assert.InDelta(t, -0.45, view.Concerns[0].AvgSentiment, 0.0001)

	// City focus zooms the map in over the selection
	assert.InDelta(t, 8, view.MapView.Zoom, 0.001)
	assert.InDelta(t, 30.30164, view.MapView.CenterLat, 0.0001)
	assert.InDelta(t, -97.75142, view.MapView.CenterLon, 0.0001)

	assert.Len(t, view.MapPoints, 5)
}

func TestDashboardService_View_Recommendations(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	view, err := svc.View(context.Background(), domain.Filter{State: "TX", City: "Austin", TopN: 5})
	require.NoError(t, err)

	// Austin's means (78 stations, $85k income) trip the charging gap
	// rule; EV share 13.6% stays above the webinar threshold.
	require.Len(t, view.Recommendations, 3)
	assert.Equal(t, "Prioritize campaign in ZIP 78701 (Austin, TX)", view.Recommendations[0].Action)
	assert.Equal(t, "Address charging infrastructure in targeted messaging", view.Recommendations[1].Action)
	assert.Equal(t, "Partner with charging providers", view.Recommendations[2].Action)

	require.Len(t, view.TalkingPoints, 3)
	assert.Equal(t, "Charging infrastructure", view.TalkingPoints[0].Concern)
	assert.NotEmpty(t, view.TalkingPoints[0].Message)
}

func TestDashboardService_View_EmptyFilterMeansAll(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	view, err := svc.View(context.Background(), domain.Filter{})
	require.NoError(t, err)

	assert.Equal(t, domain.FilterAll, view.Filter.State)
	assert.Equal(t, domain.FilterAll, view.Filter.City)
	assert.Equal(t, 5, view.Filter.TopN)

	assert.Equal(t, 10, view.Summary.ZipCount)
	require.Len(t, view.TopZips, 5)
	assert.Equal(t, "94103", view.TopZips[0].Zip)
	assert.Equal(t, "95112", view.TopZips[1].Zip)

	assert.Equal(t, []string{"ALL", "CA", "TX"}, view.Options.States)
	assert.Equal(t, []string{"ALL", "Austin", "Dallas", "Houston", "San Francisco", "San Jose"}, view.Options.Cities)

	// Country-wide view
	assert.InDelta(t, 3.5, view.MapView.Zoom, 0.001)
}

func TestDashboardService_View_StateCityOptions(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	view, err := svc.View(context.Background(), domain.Filter{State: "TX"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ALL", "Austin", "Dallas", "Houston"}, view.Options.Cities)
	assert.InDelta(t, 5, view.MapView.Zoom, 0.001)
}

func TestDashboardService_View_UnknownStateIsEmpty(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	view, err := svc.View(context.Background(), domain.Filter{State: "ZZ"})
	require.NoError(t, err)

	assert.Equal(t, 0, view.Summary.ZipCount)
	assert.Empty(t, view.TopZips)
	assert.Empty(t, view.Concerns)
	assert.Empty(t, view.MapPoints)

	// Nothing to center on: continental fallback at state zoom
	assert.InDelta(t, 39.5, view.MapView.CenterLat, 0.001)
	assert.InDelta(t, -98.35, view.MapView.CenterLon, 0.001)
	assert.InDelta(t, 5, view.MapView.Zoom, 0.001)

	require.Len(t, view.Recommendations, 1)
	assert.Equal(t, "Maintain current strategy", view.Recommendations[0].Action)
	assert.Empty(t, view.TalkingPoints)
}

func TestDashboardService_TopZips_Clamping(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	tests := []struct {
		name    string
		topN    int
		wantLen int
	}{
		{name: "zero uses default", topN: 0, wantLen: 5},
		{name: "below minimum clamps up", topN: 1, wantLen: 3},
		{name: "above maximum clamps down", topN: 50, wantLen: 10},
		{name: "within range", topN: 7, wantLen: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zips, err := svc.TopZips(context.Background(), domain.Filter{TopN: tt.topN})
			require.NoError(t, err)
			assert.Len(t, zips, tt.wantLen)
		})
	}
}

func TestDashboardService_ConcernSummaries(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	concerns, err := svc.ConcernSummaries(context.Background(), domain.Filter{State: "TX"})
	require.NoError(t, err)

	require.Len(t, concerns, 5)
	assert.Equal(t, "Charging infrastructure", concerns[0].Concern)
	assert.Equal(t, 320, concerns[0].TotalMentions)
	assert.InDelta(t, -0.4325, concerns[0].AvgSentiment, 0.0001)
	assert.Equal(t, "Purchase price", concerns[1].Concern)
	assert.Equal(t, 260, concerns[1].TotalMentions)
}

func TestDashboardService_Brief(t *testing.T) {
	svc, clock := newTestDashboardService(t)

	brief, err := svc.Brief(context.Background(), domain.Filter{State: "TX", City: "Austin", TopN: 3})
	require.NoError(t, err)

	assert.Equal(t, clock.Now().UTC(), brief.GeneratedAt)
	assert.Equal(t, "TX", brief.Filter.State)
	assert.Len(t, brief.TopZips, 3)
	assert.Len(t, brief.Concerns, 5)
	assert.NotEmpty(t, brief.Recommendations)
	assert.NotEmpty(t, brief.TalkingPoints)
}

func TestDashboardService_DefaultFilter(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	assert.Equal(t, domain.Filter{State: "TX", City: "Austin", TopN: 5}, svc.DefaultFilter())
}
