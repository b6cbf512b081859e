package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinsights/internal/config"
)

func initFileLogger(t *testing.T, cfg config.LoggingConfig) *slog.Logger {
	t.Helper()
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	return logger
}

func readLogRecords(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		var record map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &record), "log line should be JSON: %s", line)
		records = append(records, record)
	}
	return records
}

func TestInitializeLogger_WritesJSONToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	logger := initFileLogger(t, config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})

	logger.Info("dataset loaded", "geo_rows", 10, "concern_rows", 10)

	records := readLogRecords(t, logFile)
	require.Len(t, records, 1)
	assert.Equal(t, "dataset loaded", records[0]["msg"])
	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, float64(10), records[0]["geo_rows"])
	assert.Contains(t, records[0], "source")
}

func TestInitializeLogger_TextFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	logger := initFileLogger(t, config.LoggingConfig{
		Level:    "info",
		Format:   "text",
		Output:   "file",
		FilePath: logFile,
	})

	logger.Info("report written")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "msg=")
	assert.Contains(t, string(content), "level=INFO")
}

func TestInitializeLogger_FirstConfigurationWins(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	first := initFileLogger(t, config.LoggingConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: logFile,
	})

	second, err := InitializeLogger(config.LoggingConfig{
		Level:    "error",
		Output:   "file",
		FilePath: filepath.Join(t.TempDir(), "other.log"),
	})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestTraceIDFlowsIntoRecords(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	logger := initFileLogger(t, config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})

	ctx := WithTraceID(context.Background(), "trace-dashboard-42")
	logger.InfoContext(ctx, "refresh requested")
	logger.Info("no context here")

	records := readLogRecords(t, logFile)
	require.Len(t, records, 2)
	assert.Equal(t, "trace-dashboard-42", records[0]["trace_id"])
	assert.NotContains(t, records[1], "trace_id")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "keep-me")
	assert.Equal(t, "keep-me", GetTraceID(EnsureTraceID(ctx)))

	generated := GetTraceID(EnsureTraceID(context.Background()))
	assert.NotEmpty(t, generated)
	assert.NotEqual(t, generated, GenerateTraceID())
}

func TestCloseLogFile_Idempotent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	initFileLogger(t, config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})

	require.NoError(t, CloseLogFile())
	require.NoError(t, CloseLogFile())
}
