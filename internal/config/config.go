package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Defaults live in
// Default(); Load layers a YAML file and EVI_* environment variables on
// top of them.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig sets the listen port and the HTTP timeout budget.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig covers CORS origins and the request rate limit.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig is a token bucket: RPS refill rate plus burst size.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig selects level, format and where log lines go.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig overrides the directory layout. Relative entries resolve
// against the executable directory.
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	WebDir        string `yaml:"web_dir" envconfig:"WEB_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	GeoFile       string `yaml:"geo_file" envconfig:"GEO_FILE"`
	ConcernsFile  string `yaml:"concerns_file" envconfig:"CONCERNS_FILE"`
}

// DashboardConfig contains the dashboard's filter defaults and the
// thresholds the recommendation rules compare against.
type DashboardConfig struct {
	DefaultState string `yaml:"default_state" envconfig:"DEFAULT_STATE"`
	DefaultCity  string `yaml:"default_city" envconfig:"DEFAULT_CITY"`
	DefaultTopN  int    `yaml:"default_top_n" envconfig:"DEFAULT_TOP_N"`
	MinTopN      int    `yaml:"min_top_n" envconfig:"MIN_TOP_N"`
	MaxTopN      int    `yaml:"max_top_n" envconfig:"MAX_TOP_N"`

	// Charging-partnership rule: mean stations below the gap threshold
	// while mean income is above the income threshold.
	ChargingGapStations float64 `yaml:"charging_gap_stations" envconfig:"CHARGING_GAP_STATIONS"`
	ChargingGapIncome   float64 `yaml:"charging_gap_income" envconfig:"CHARGING_GAP_INCOME"`

	// Dealer-education rule: mean EV share below this fraction.
	LowEVShare float64 `yaml:"low_ev_share" envconfig:"LOW_EV_SHARE"`
}

// WebSocketConfig sizes the upgrader buffers.
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
}

// Load builds the configuration in three layers: compiled-in defaults,
// then an optional YAML file, then EVI_* environment variables. Each
// layer only touches keys it actually sets, so precedence is env over
// file over default.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("EVI", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, fmt.Errorf("path validation failed: %w", err)
	}

	return cfg, nil
}

// applyFile overlays a YAML file onto cfg. Keys absent from the file
// leave the current values alone.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile checks the conventional locations relative to the
// working directory.
func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml", "../configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// resolvePaths anchors path-like settings to the executable directory
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	c.Paths.ExecutableDir = paths.ExecutableDir

	// The log file follows the executable like every other path; a bare
	// filename or relative path lands in the logs directory.
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = paths.GetLogPath(filepath.Base(c.Logging.FilePath))
	}
	return nil
}

// ValidatePaths creates the working directories and logs where
// everything resolved to.
func (c *Config) ValidatePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	paths.LogPathResolution()
	return nil
}

// resolveDir anchors a configured directory to the executable unless it
// is already absolute.
func (c *Config) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Paths.ExecutableDir, dir)
}

func resolveFile(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func (c *Config) GetDataDir() string { return c.resolveDir(c.Paths.DataDir) }

func (c *Config) GetReportsDir() string { return c.resolveDir(c.Paths.ReportsDir) }

func (c *Config) GetLogsDir() string { return c.resolveDir(c.Paths.LogsDir) }

// GetGeoFilePath returns the resolved path of the ZIP-level geo CSV
func (c *Config) GetGeoFilePath() string {
	return resolveFile(c.GetDataDir(), c.Paths.GeoFile)
}

// GetConcernsFilePath returns the resolved path of the concerns CSV
func (c *Config) GetConcernsFilePath() string {
	return resolveFile(c.GetDataDir(), c.Paths.ConcernsFile)
}

// validate checks ranges and normalizes the logging section. Logging is
// never a fatal misconfiguration: format is always JSON and unknown
// outputs fall back to both.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Dashboard.MinTopN < 1 {
		return fmt.Errorf("dashboard min top-n must be at least 1: %d", c.Dashboard.MinTopN)
	}
	if c.Dashboard.MaxTopN < c.Dashboard.MinTopN {
		return fmt.Errorf("dashboard max top-n %d below min %d", c.Dashboard.MaxTopN, c.Dashboard.MinTopN)
	}
	if c.Dashboard.DefaultTopN < c.Dashboard.MinTopN || c.Dashboard.DefaultTopN > c.Dashboard.MaxTopN {
		return fmt.Errorf("dashboard default top-n %d outside [%d,%d]",
			c.Dashboard.DefaultTopN, c.Dashboard.MinTopN, c.Dashboard.MaxTopN)
	}
	if c.Dashboard.LowEVShare < 0 || c.Dashboard.LowEVShare > 1 {
		return fmt.Errorf("dashboard low ev share %.4f must be within [0,1]", c.Dashboard.LowEVShare)
	}

	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	switch c.Logging.Output {
	case "both", "file", "stdout":
	default:
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// Default returns the compiled-in configuration. Every field Load can
// layer over is given a value here.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Paths: PathsConfig{
			DataDir:      DefaultDataDir,
			ReportsDir:   DefaultReportsDir,
			WebDir:       DefaultWebDir,
			LogsDir:      DefaultLogsDir,
			GeoFile:      GeoFileName,
			ConcernsFile: ConcernsFileName,
		},
		Dashboard: DashboardConfig{
			DefaultState:        "TX",
			DefaultCity:         "Austin",
			DefaultTopN:         DefaultTopN,
			MinTopN:             MinTopN,
			MaxTopN:             MaxTopN,
			ChargingGapStations: 80,
			ChargingGapIncome:   80000,
			LowEVShare:          0.12,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
		},
	}
}
