package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Sync()
		require.NoError(t, Setup("", "info"))
	})
}

func TestSetup_FileLogger(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, Setup(dir, "debug"))

	LogInfo("Table loaded", zap.String("source", "prices.csv"), zap.Int("rows", 62))
	LogWarn("Skipping indicator", zap.String("code", "SE.XPD.TOTL.GD.ZS"))
	LogDebug("Indicator fetched")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "INFO Table loaded\t")
	assert.Contains(t, content, `"rows":62`)
	assert.Contains(t, content, `"source":"prices.csv"`)
	assert.Contains(t, content, "WARN Skipping indicator")
	assert.Contains(t, content, "DEBUG Indicator fetched\n")
}

func TestSetup_ConsoleOnly(t *testing.T) {
	resetLogging(t)

	require.NoError(t, Setup("", "warn"))
	assert.Same(t, consoleLogger, Logger)
	assert.False(t, Logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, Logger.Core().Enabled(zap.WarnLevel))
}

func TestSetup_InvalidLevel(t *testing.T) {
	resetLogging(t)

	err := Setup("", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestExtractDuration(t *testing.T) {
	assert.Equal(t, int64(120), extractDuration([]zap.Field{zap.String("x", "y"), zap.Int64("duration_ms", 120)}))
	assert.Equal(t, int64(0), extractDuration([]zap.Field{zap.String("duration_ms", "120")}))
}
