package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	WebDir        string
	DataDir       string
	ReportsDir    string
	LogsDir       string

	// Source data files
	GeoCSV      string
	ConcernsCSV string

	// Well-known export files (written by the report command and the
	// export endpoints' offline counterpart)
	TopZipsCSV        string
	ConcernSummaryCSV string
	CampaignBriefXLSX string
	ReportMetaJSON    string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// A symlinked binary should anchor paths at its real location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return newPaths(filepath.Dir(exe)), nil
}

// newPaths lays out the directory tree under the given root:
//
//	<root>/
//	  ├── data/
//	  │   ├── ev_geo_data.csv
//	  │   ├── ev_concerns_sample.csv
//	  │   └── reports/       (generated exports)
//	  ├── logs/
//	  └── web/               (frontend assets when not embedded)
func newPaths(root string) *Paths {
	dataDir := filepath.Join(root, DefaultDataDir)
	reportsDir := filepath.Join(root, DefaultReportsDir)

	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		ReportsDir:    reportsDir,
		WebDir:        filepath.Join(root, DefaultWebDir),
		LogsDir:       filepath.Join(root, DefaultLogsDir),

		GeoCSV:      filepath.Join(dataDir, GeoFileName),
		ConcernsCSV: filepath.Join(dataDir, ConcernsFileName),

		TopZipsCSV:        filepath.Join(reportsDir, TopZipsFileName),
		ConcernSummaryCSV: filepath.Join(reportsDir, ConcernSummaryFileName),
		CampaignBriefXLSX: filepath.Join(reportsDir, CampaignBriefFileName),
		ReportMetaJSON:    filepath.Join(reportsDir, ReportMetaFileName),
	}
}

// EnsureDirectories creates the data, reports, and logs directories if they
// don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetReportPath places filename under the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath places filename under the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution records where every directory and source file ended
// up, for diagnosing misplaced deployments.
func (p *Paths) LogPathResolution() {
	slog.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.Group("data_files",
			slog.String("geo_csv", p.GeoCSV),
			slog.String("concerns_csv", p.ConcernsCSV),
		),
		slog.Group("export_files",
			slog.String("top_zips_csv", p.TopZipsCSV),
			slog.String("concern_summary_csv", p.ConcernSummaryCSV),
			slog.String("campaign_brief_xlsx", p.CampaignBriefXLSX),
		))
}

// ValidateRequiredFiles checks that the source CSVs exist and returns a
// detailed error naming whichever are missing.
func (p *Paths) ValidateRequiredFiles() error {
	requiredFiles := map[string]string{
		"Geo data": p.GeoCSV,
		"Concerns": p.ConcernsCSV,
	}

	var missingFiles []string
	for name, path := range requiredFiles {
		if !FileExists(path) {
			missingFiles = append(missingFiles, fmt.Sprintf("%s (%s)", name, path))
		}
	}

	if len(missingFiles) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missingFiles, ", "))
	}

	return nil
}
