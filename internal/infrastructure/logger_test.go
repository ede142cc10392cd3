package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/config"
)

func decodeLastLine(t *testing.T, content string) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(content), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err, "rotating file creates its directory on first write")

	entry := decodeLastLine(t, string(content))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "source")
}

func TestInitializeLogger_Once(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, file, err := NewLogger(config.LoggingConfig{Level: "debug", Output: "console"}, &buf)
	require.NoError(t, err)
	assert.Nil(t, file)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := decodeLastLine(t, buf.String())
	assert.Equal(t, "test-trace-123", entry["trace_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		log      func(*slog.Logger)
		expected string
	}{
		{"debug", func(l *slog.Logger) { l.Debug("m") }, "DEBUG"},
		{"info", func(l *slog.Logger) { l.Info("m") }, "INFO"},
		{"warn", func(l *slog.Logger) { l.Warn("m") }, "WARN"},
		{"error", func(l *slog.Logger) { l.Error("m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, _, err := NewLogger(config.LoggingConfig{Level: tt.level, Output: "console"}, &buf)
			require.NoError(t, err)

			tt.log(logger)

			entry := decodeLastLine(t, buf.String())
			assert.Equal(t, tt.expected, entry["level"])
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "warn", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("plain", "file", "a.csv")

	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "file=a.csv")
}

func TestBothOutput(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "both.log")
	logger, file, err := NewLogger(config.LoggingConfig{Level: "info", Output: "both", FilePath: logFile}, &buf)
	require.NoError(t, err)
	require.NotNil(t, file)

	logger.Info("twice")
	require.NoError(t, file.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "twice")
	assert.Contains(t, buf.String(), "twice")
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 36, "uuid v4 string")

	assert.Equal(t, ctx, EnsureTraceID(ctx), "existing trace id is kept")
	assert.Equal(t, "", GetTraceID(context.Background()))

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	WithError(WithComponent(base, "ingest"), assert.AnError).Info("failed")

	entry := decodeLastLine(t, buf.String())
	assert.Equal(t, "ingest", entry["component"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Same(t, base, WithError(base, nil))
}
