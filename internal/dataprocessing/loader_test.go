package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evinsights/internal/errors"
	"evinsights/internal/shared/testutil"
)

func TestLoadZipRecords(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	path := fixtures.WriteGeoCSV(t)

	records, err := LoadZipRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 10)

	first := records[0]
	assert.Equal(t, "78701", first.Zip)
	assert.Equal(t, "Austin", first.City)
	assert.Equal(t, "TX", first.State)
	assert.InDelta(t, 30.2672, first.Lat, 1e-9)
	assert.EqualValues(t, 41000, first.Population)
	assert.EqualValues(t, 95000, first.MedianIncome)
	assert.EqualValues(t, 120, first.ChargingStations)
	assert.InDelta(t, 0.18, first.EVShare, 1e-9)
	assert.InDelta(t, 450, first.PredictedSales, 1e-9)
}

func TestLoadZipRecords_HeaderOrderIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reordered.csv")
	content := "state,zip,predicted_ev_sales_next_12m,city,lat,lon,population,median_income,charging_stations,ev_share\n" +
		"TX,78701,450,Austin,30.2672,-97.7431,41000,95000,120,0.18\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := LoadZipRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "78701", records[0].Zip)
	assert.InDelta(t, 450, records[0].PredictedSales, 1e-9)
}

func TestLoadZipRecords_ThousandsSeparators(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formatted.csv")
	content := "zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m\n" +
		`78701,Austin,TX,30.2672,-97.7431,"41,000","95,000",120,0.18,"1,450"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := LoadZipRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 41000, records[0].Population)
	assert.EqualValues(t, 95000, records[0].MedianIncome)
	assert.InDelta(t, 1450, records[0].PredictedSales, 1e-9)
}

func TestLoadZipRecords_FileMissing(t *testing.T) {
	_, err := LoadZipRecords(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
}

func TestLoadZipRecords_MalformedValue(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	path := fixtures.WriteMalformedGeoCSV(t)

	_, err := LoadZipRecords(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ev_geo_data.csv", parseErr.File)
	assert.Equal(t, 3, parseErr.Row)
	assert.Equal(t, "population", parseErr.Column)
}

func TestLoadZipRecords_MissingColumn(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	path := fixtures.WriteMissingHeaderGeoCSV(t)

	_, err := LoadZipRecords(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Row)
	assert.Equal(t, "predicted_ev_sales_next_12m", parseErr.Column)
}

func TestLoadZipRecords_EmptyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("zero bytes", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := LoadZipRecords(context.Background(), path)
		assert.ErrorIs(t, err, apperrors.ErrEmptyDataset)
	})

	t.Run("header only", func(t *testing.T) {
		path := filepath.Join(dir, "header_only.csv")
		header := "zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m\n"
		require.NoError(t, os.WriteFile(path, []byte(header), 0o644))

		_, err := LoadZipRecords(context.Background(), path)
		assert.ErrorIs(t, err, apperrors.ErrEmptyDataset)
	})
}

func TestLoadZipRecords_InvalidRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_state.csv")
	content := "zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m\n" +
		"78701,Austin,Texas,30.2672,-97.7431,41000,95000,120,0.18,450\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadZipRecords(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatasetMalformed)
}

func TestLoadZipRecords_ContextCancelled(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	path := fixtures.WriteGeoCSV(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadZipRecords(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConcernRecords(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	path := fixtures.WriteConcernsCSV(t)

	records, err := LoadConcernRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 10)

	first := records[0]
	assert.Equal(t, "Austin", first.City)
	assert.Equal(t, "TX", first.State)
	assert.Equal(t, "Charging infrastructure", first.Concern)
	assert.EqualValues(t, 180, first.MentionCount)
	assert.InDelta(t, -0.45, first.AvgSentiment, 1e-9)
}

func TestLoadConcernRecords_MalformedSentiment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	content := "city,state,concern,mention_count,avg_sentiment\n" +
		"Austin,TX,Purchase price,150,very negative\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadConcernRecords(context.Background(), path)

	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Row)
	assert.Equal(t, "avg_sentiment", parseErr.Column)
}

func TestLoadSnapshot(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	geoPath, concernsPath := fixtures.WriteBoth(t)

	snapshot, err := LoadSnapshot(context.Background(), geoPath, concernsPath)
	require.NoError(t, err)

	assert.Len(t, snapshot.Zips, 10)
	assert.Len(t, snapshot.Concerns, 10)
	assert.Equal(t, geoPath, snapshot.GeoFile)
	assert.Equal(t, concernsPath, snapshot.ConcernsFile)
	assert.True(t, snapshot.LoadedAt.IsZero(), "loader leaves the timestamp to the caller")
}

func TestLoadSnapshot_PropagatesGeoError(t *testing.T) {
	fixtures := testutil.NewDataFixtures(t.TempDir())
	concernsPath := fixtures.WriteConcernsCSV(t)

	_, err := LoadSnapshot(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), concernsPath)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
}
