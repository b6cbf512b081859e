package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the application version.
	Version = "1.0.0"

	// DataFormatVersion is the version of the CSV data contract.
	DataFormatVersion = "v1"

	// APIVersion is the version of the HTTP/WebSocket API.
	APIVersion = "v1"
)

// Stamped at build time via -ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the full build description served by /api/version and
// printed by the -version flag.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo collects the static version constants and the runtime
// platform details.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetFullVersionString returns the one-line build description for the
// -version flag.
func GetFullVersionString() string {
	return fmt.Sprintf("EV Market Insights v%s (built %s, commit %s, %s %s/%s)",
		Version, BuildTime, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
