package infrastructure

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstat/internal/config"
)

func TestInitializeLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "run.log")

	logger, closer, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: logPath,
	})
	require.NoError(t, err)

	logger.Info("standardize complete", slog.Int("columns", 5))
	require.NoError(t, closer())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "standardize complete", record["msg"])
	assert.EqualValues(t, 5, record["columns"])
	assert.NotEmpty(t, record["run_id"], "every record carries the run id")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLogLevel(tt.input), tt.input)
	}
}
