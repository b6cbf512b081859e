package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"evinsights/internal/config"
	apperrors "evinsights/internal/errors"
	"evinsights/internal/infrastructure"
	"evinsights/internal/shared/testutil"
	"evinsights/pkg/contracts/domain"
	"evinsights/pkg/contracts/events"
)

var testLoadTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestDatasetService builds a dataset service over fixture CSVs in a
// per-test temp directory.
func newTestDatasetService(t *testing.T, hub WebSocketHub) (*DatasetService, *config.Paths, *clockwork.FakeClock) {
	t.Helper()

	dir := t.TempDir()
	fixtures := testutil.NewDataFixtures(dir)
	geoPath, concernsPath := fixtures.WriteBoth(t)

	paths := &config.Paths{
		ExecutableDir: dir,
		DataDir:       dir,
		ReportsDir:    filepath.Join(dir, "reports"),
		GeoCSV:        geoPath,
		ConcernsCSV:   concernsPath,
	}

	clock := clockwork.NewFakeClockAt(testLoadTime)
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDatasetService(paths, logger, clock, infrastructure.NewMetricsForTesting(), hub)
	return svc, paths, clock
}

func TestDatasetService_SnapshotLoadsOnDemand(t *testing.T) {
	svc, paths, _ := newTestDatasetService(t, nil)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Zips, 10)
	assert.Len(t, snap.Concerns, 10)
	assert.Equal(t, testLoadTime, snap.LoadedAt)
	assert.Equal(t, paths.GeoCSV, snap.GeoFile)
	assert.Equal(t, paths.ConcernsCSV, snap.ConcernsFile)
}

func TestDatasetService_SnapshotIsCached(t *testing.T) {
	svc, paths, _ := newTestDatasetService(t, nil)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	// Corrupt the file on disk; the cache must keep serving
	require.NoError(t, os.WriteFile(paths.GeoCSV, []byte("garbage"), 0644))

	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestDatasetService_RefreshRereadsFiles(t *testing.T) {
	svc, paths, clock := newTestDatasetService(t, nil)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Zips, 10)

	// Shrink the geo file to two rows and advance time
	trimmed := "zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m\n" +
		"78701,Austin,TX,30.2672,-97.7431,41000,95000,120,0.18,450\n" +
		"78704,Austin,TX,30.2450,-97.7595,55000,88000,95,0.15,390\n"
	require.NoError(t, os.WriteFile(paths.GeoCSV, []byte(trimmed), 0644))
	clock.Advance(5 * time.Minute)

	refreshed, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, refreshed.Zips, 2)
	assert.Equal(t, testLoadTime.Add(5*time.Minute), refreshed.LoadedAt)

	// The new snapshot replaces the cached one
	current, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, refreshed, current)
}

func TestDatasetService_RefreshBroadcasts(t *testing.T) {
	hub := &MockWebSocketHub{}
	hub.On("Broadcast", string(events.MessageTypeDataRefreshed), mock.MatchedBy(func(data interface{}) bool {
		event, ok := data.(events.DataRefreshedEvent)
		return ok && event.GeoRows == 10 && event.ConcernRows == 10 && event.Reason == "manual refresh"
	})).Once()

	svc, _, _ := newTestDatasetService(t, hub)

	_, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)

	hub.AssertExpectations(t)
}

func TestDatasetService_InitialLoadDoesNotBroadcast(t *testing.T) {
	hub := &MockWebSocketHub{}
	svc, _, _ := newTestDatasetService(t, hub)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	hub.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestDatasetService_MissingGeoFile(t *testing.T) {
	svc, paths, _ := newTestDatasetService(t, nil)
	require.NoError(t, os.Remove(paths.GeoCSV))

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)

	// No snapshot gets published on failure
	assert.Nil(t, svc.Current())
}

func TestDatasetService_MalformedGeoFile(t *testing.T) {
	svc, paths, _ := newTestDatasetService(t, nil)

	fixtures := testutil.NewDataFixtures(filepath.Dir(paths.GeoCSV))
	fixtures.WriteMalformedGeoCSV(t)

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ev_geo_data.csv", parseErr.File)
	assert.Equal(t, 3, parseErr.Row)
	assert.Equal(t, "population", parseErr.Column)
}

func TestDatasetService_RefreshFailureKeepsLastSnapshot(t *testing.T) {
	svc, paths, _ := newTestDatasetService(t, nil)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(paths.GeoCSV, []byte("zip,city\n"), 0644))

	_, err = svc.Refresh(context.Background(), "")
	require.Error(t, err)

	// Readers keep getting the last good snapshot
	current, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestDatasetService_ConcurrentSnapshot(t *testing.T) {
	svc, _, _ := newTestDatasetService(t, nil)

	snapshots := make([]*domain.Snapshot, 8)
	var g errgroup.Group
	for i := 0; i < len(snapshots); i++ {
		i := i
		g.Go(func() error {
			snap, err := svc.Snapshot(context.Background())
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, snap := range snapshots[1:] {
		assert.Same(t, snapshots[0], snap)
	}
}

func TestDatasetService_LoadedAt(t *testing.T) {
	svc, _, _ := newTestDatasetService(t, nil)

	_, ok := svc.LoadedAt()
	assert.False(t, ok)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	loadedAt, ok := svc.LoadedAt()
	assert.True(t, ok)
	assert.Equal(t, testLoadTime, loadedAt)
}
