package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	require.NotNil(t, paths)

	// Everything hangs off the executable directory
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
}

func TestNewPaths_Layout(t *testing.T) {
	paths := newPaths("/opt/evinsights")

	assert.Equal(t, "/opt/evinsights", paths.ExecutableDir)
	assert.Equal(t, "/opt/evinsights/data", paths.DataDir)
	assert.Equal(t, "/opt/evinsights/data/reports", paths.ReportsDir)
	assert.Equal(t, "/opt/evinsights/logs", paths.LogsDir)
	assert.Equal(t, "/opt/evinsights/web", paths.WebDir)

	// Source files live in data/, exports in data/reports/
	assert.Equal(t, filepath.Join(paths.DataDir, GeoFileName), paths.GeoCSV)
	assert.Equal(t, filepath.Join(paths.DataDir, ConcernsFileName), paths.ConcernsCSV)
	assert.Equal(t, filepath.Join(paths.ReportsDir, TopZipsFileName), paths.TopZipsCSV)
	assert.Equal(t, filepath.Join(paths.ReportsDir, ConcernSummaryFileName), paths.ConcernSummaryCSV)
	assert.Equal(t, filepath.Join(paths.ReportsDir, CampaignBriefFileName), paths.CampaignBriefXLSX)
	assert.Equal(t, filepath.Join(paths.ReportsDir, ReportMetaFileName), paths.ReportMetaJSON)
}

func TestPathHelpers(t *testing.T) {
	p := &Paths{
		ExecutableDir: "/opt/evinsights",
		DataDir:       "/opt/evinsights/data",
		ReportsDir:    "/opt/evinsights/data/reports",
		LogsDir:       "/opt/evinsights/logs",
	}

	assert.Equal(t, "/opt/evinsights/data/reports/out.csv", p.GetReportPath("out.csv"))
	assert.Equal(t, "/opt/evinsights/logs/app.log", p.GetLogPath("app.log"))
}

func TestEnsureDirectories(t *testing.T) {
	tempDir := t.TempDir()
	p := &Paths{
		DataDir:    filepath.Join(tempDir, "data"),
		ReportsDir: filepath.Join(tempDir, "data", "reports"),
		LogsDir:    filepath.Join(tempDir, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Idempotent
	require.NoError(t, p.EnsureDirectories())
}

func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "present.csv")
	require.NoError(t, os.WriteFile(existing, []byte("zip\n"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(tempDir, "absent.csv")))
}

func TestValidateRequiredFiles(t *testing.T) {
	tempDir := t.TempDir()
	p := &Paths{
		GeoCSV:      filepath.Join(tempDir, GeoFileName),
		ConcernsCSV: filepath.Join(tempDir, ConcernsFileName),
	}

	err := p.ValidateRequiredFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required files missing")

	require.NoError(t, os.WriteFile(p.GeoCSV, []byte("zip\n"), 0644))
	err = p.ValidateRequiredFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Concerns")

	require.NoError(t, os.WriteFile(p.ConcernsCSV, []byte("city\n"), 0644))
	require.NoError(t, p.ValidateRequiredFiles())
}
