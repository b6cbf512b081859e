package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvVars are every environment variable the tests touch; saved and
// restored so runs don't leak into each other.
var configEnvVars = []string{
	"EVI_SERVER_PORT", "EVI_SERVER_READ_TIMEOUT", "EVI_SERVER_WRITE_TIMEOUT",
	"EVI_SECURITY_ALLOWED_ORIGINS", "EVI_SECURITY_ENABLE_CORS",
	"EVI_LOGGING_LEVEL", "EVI_LOGGING_FORMAT", "EVI_LOGGING_OUTPUT",
	"EVI_PATHS_DATA_DIR", "EVI_PATHS_GEO_FILE", "EVI_PATHS_CONCERNS_FILE",
	"EVI_DASHBOARD_DEFAULT_STATE", "EVI_DASHBOARD_DEFAULT_TOP_N",
	"EVI_DASHBOARD_MIN_TOP_N", "EVI_DASHBOARD_MAX_TOP_N",
	"EVI_DASHBOARD_LOW_EV_SHARE",
}

func withCleanEnv(t *testing.T) {
	t.Helper()

	original := make(map[string]string)
	for _, envVar := range configEnvVars {
		original[envVar] = os.Getenv(envVar)
		os.Unsetenv(envVar)
	}

	t.Cleanup(func() {
		for _, envVar := range configEnvVars {
			if val := original[envVar]; val != "" {
				os.Setenv(envVar, val)
			} else {
				os.Unsetenv(envVar)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func()
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "default configuration with no env vars",
			setupEnv: func() {},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)

				assert.Equal(t, GeoFileName, cfg.Paths.GeoFile)
				assert.Equal(t, ConcernsFileName, cfg.Paths.ConcernsFile)

				assert.Equal(t, "TX", cfg.Dashboard.DefaultState)
				assert.Equal(t, "Austin", cfg.Dashboard.DefaultCity)
				assert.Equal(t, 5, cfg.Dashboard.DefaultTopN)
				assert.Equal(t, 3, cfg.Dashboard.MinTopN)
				assert.Equal(t, 10, cfg.Dashboard.MaxTopN)
				assert.Equal(t, 80.0, cfg.Dashboard.ChargingGapStations)
				assert.Equal(t, 80000.0, cfg.Dashboard.ChargingGapIncome)
				assert.Equal(t, 0.12, cfg.Dashboard.LowEVShare)
			},
		},
		{
			name: "custom environment variables",
			setupEnv: func() {
				os.Setenv("EVI_SERVER_PORT", "9090")
				os.Setenv("EVI_SERVER_READ_TIMEOUT", "30s")
				os.Setenv("EVI_SECURITY_ALLOWED_ORIGINS", "http://example.com,https://example.com")
				os.Setenv("EVI_LOGGING_LEVEL", "debug")
				os.Setenv("EVI_LOGGING_FORMAT", "text")
				os.Setenv("EVI_DASHBOARD_DEFAULT_STATE", "CA")
				os.Setenv("EVI_DASHBOARD_DEFAULT_TOP_N", "7")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // validate() forces json
				assert.Equal(t, "CA", cfg.Dashboard.DefaultState)
				assert.Equal(t, 7, cfg.Dashboard.DefaultTopN)
			},
		},
		{
			name: "invalid port number",
			setupEnv: func() {
				os.Setenv("EVI_SERVER_PORT", "99999")
			},
			wantErr: true,
		},
		{
			name: "negative timeout",
			setupEnv: func() {
				os.Setenv("EVI_SERVER_READ_TIMEOUT", "-5s")
			},
			wantErr: true,
		},
		{
			name: "default top-n outside bounds",
			setupEnv: func() {
				os.Setenv("EVI_DASHBOARD_DEFAULT_TOP_N", "20")
			},
			wantErr: true,
		},
		{
			name: "max top-n below min",
			setupEnv: func() {
				os.Setenv("EVI_DASHBOARD_MIN_TOP_N", "6")
				os.Setenv("EVI_DASHBOARD_MAX_TOP_N", "4")
				os.Setenv("EVI_DASHBOARD_DEFAULT_TOP_N", "6")
			},
			wantErr: true,
		},
		{
			name: "ev share threshold above one",
			setupEnv: func() {
				os.Setenv("EVI_DASHBOARD_LOW_EV_SHARE", "1.5")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t)
			tt.setupEnv()

			cfg, err := Load()

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, GeoFileName, cfg.Paths.GeoFile)
	assert.Equal(t, "TX", cfg.Dashboard.DefaultState)
	assert.Equal(t, 5, cfg.Dashboard.DefaultTopN)
	require.NoError(t, cfg.validate())
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	src := "server:\n  port: 9000\ndashboard:\n  default_state: WA\n  default_top_n: 8\npaths:\n  geo_file: geo_override.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cfg := Default()
	require.NoError(t, applyFile(cfg, path))

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "WA", cfg.Dashboard.DefaultState)
	assert.Equal(t, 8, cfg.Dashboard.DefaultTopN)
	assert.Equal(t, "geo_override.csv", cfg.Paths.GeoFile)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, "Austin", cfg.Dashboard.DefaultCity)
	assert.Equal(t, ConcernsFileName, cfg.Paths.ConcernsFile)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestApplyFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map]\n"), 0644))

	assert.Error(t, applyFile(Default(), path))
}

func TestPathResolution(t *testing.T) {
	cfg := Default()
	cfg.Paths.ExecutableDir = "/opt/evinsights"

	assert.Equal(t, "/opt/evinsights/data", cfg.GetDataDir())
	assert.Equal(t, "/opt/evinsights/data/reports", cfg.GetReportsDir())
	assert.Equal(t, "/opt/evinsights/logs", cfg.GetLogsDir())
	assert.Equal(t, "/opt/evinsights/data/"+GeoFileName, cfg.GetGeoFilePath())
	assert.Equal(t, "/opt/evinsights/data/"+ConcernsFileName, cfg.GetConcernsFilePath())

	cfg.Paths.DataDir = "/var/lib/evi"
	assert.Equal(t, "/var/lib/evi", cfg.GetDataDir())
	assert.Equal(t, "/var/lib/evi/"+GeoFileName, cfg.GetGeoFilePath())

	cfg.Paths.GeoFile = "/srv/data/custom_geo.csv"
	assert.Equal(t, "/srv/data/custom_geo.csv", cfg.GetGeoFilePath())
}
