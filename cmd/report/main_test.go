package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinsights/internal/config"
	"evinsights/internal/dataprocessing"
	"evinsights/internal/exporter"
	"evinsights/internal/insights"
	"evinsights/internal/shared/testutil"
	"evinsights/pkg/contracts/domain"
)

func reportPaths(t *testing.T) *config.Paths {
	t.Helper()

	dir := t.TempDir()
	geoPath, concernsPath := testutil.NewDataFixtures(dir).WriteBoth(t)
	reportsDir := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reportsDir, 0755))

	return &config.Paths{
		ExecutableDir:     dir,
		DataDir:           dir,
		ReportsDir:        reportsDir,
		LogsDir:           filepath.Join(dir, "logs"),
		GeoCSV:            geoPath,
		ConcernsCSV:       concernsPath,
		TopZipsCSV:        filepath.Join(reportsDir, config.TopZipsFileName),
		ConcernSummaryCSV: filepath.Join(reportsDir, config.ConcernSummaryFileName),
		CampaignBriefXLSX: filepath.Join(reportsDir, config.CampaignBriefFileName),
		ReportMetaJSON:    filepath.Join(reportsDir, config.ReportMetaFileName),
	}
}

func TestReportPipeline(t *testing.T) {
	paths := reportPaths(t)

	snap, err := dataprocessing.LoadSnapshot(context.Background(), paths.GeoCSV, paths.ConcernsCSV)
	require.NoError(t, err)
	require.Len(t, snap.Zips, 10)

	filter := domain.Filter{State: "TX", City: "Austin", TopN: 5}.Normalized()
	zips := dataprocessing.FilterZips(snap.Zips, filter)
	concerns := dataprocessing.AggregateConcerns(dataprocessing.FilterConcerns(snap.Concerns, filter))
	topZips := dataprocessing.TopZips(zips, filter.TopN)
	summary := dataprocessing.Summarize(zips)

	writer := exporter.NewCSVWriter(paths)

	topZipsPath, err := writer.WriteTopZips(topZips)
	require.NoError(t, err)

	_, err = writer.WriteConcernSummary(concerns)
	require.NoError(t, err)

	brief := exporter.CampaignBrief{
		GeneratedAt:     time.Now(),
		Filter:          filter,
		Summary:         summary,
		TopZips:         topZips,
		Concerns:        concerns,
		Recommendations: insights.Generate(summary, topZips, concerns, insights.DefaultThresholds()),
		TalkingPoints:   insights.TalkingPointsFor(concerns, insights.DefaultTalkingPointLimit),
	}
	briefPath, err := exporter.NewExcelWriter(paths).WriteCampaignBrief(brief)
	require.NoError(t, err)
	assert.FileExists(t, briefPath)

	verified, err := verifyTopZips(topZipsPath, len(topZips))
	require.NoError(t, err)
	assert.Equal(t, 5, verified)
}

func TestVerifyTopZips_CountMismatch(t *testing.T) {
	paths := reportPaths(t)

	zips := []domain.ZipRecord{{
		Zip: "78701", City: "Austin", State: "TX",
		Population: 41000, MedianIncome: 95000, ChargingStations: 120,
		PredictedSales: 450,
	}}
	path, err := exporter.NewCSVWriter(paths).WriteTopZips(zips)
	require.NoError(t, err)

	_, err = verifyTopZips(path, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read back 1")
}

func TestVerifyTopZips_MissingFile(t *testing.T) {
	_, err := verifyTopZips(filepath.Join(t.TempDir(), "absent.csv"), 0)
	assert.Error(t, err)
}

func TestWriteMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_meta.json")
	meta := reportMeta{
		GeneratedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Filter:       domain.Filter{State: "TX", City: "Austin", TopN: 5},
		GeoRows:      10,
		ConcernRows:  10,
		TopZips:      5,
		RowsVerified: 5,
		Files:        []string{"top_zips.csv"},
	}
	require.NoError(t, writeMeta(path, meta))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got reportMeta
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, meta.Filter, got.Filter)
	assert.Equal(t, 5, got.RowsVerified)
}
