package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
)

func bufferedLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	logger, err := New(&config.LoggingConfig{Level: level, Format: "json", Output: "discard"})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNew(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	logger, err := New(&config.LoggingConfig{
		Level:    "info",
		Format:   "text",
		Output:   "file",
		FilePath: filepath.Join(t.TempDir(), "logs", "banshee.log"),
	})
	require.NoError(t, err)
	logger.Info("written to file")
}

func TestLogTrip(t *testing.T) {
	logger, buf := bufferedLogger(t, "info")

	logger.LogTrip("trip-1", "user-1", "create", true, "pending")
	entry := lastEntry(t, buf)
	assert.Equal(t, "trip", entry["type"])
	assert.Equal(t, "trip-1", entry["trip_id"])
	assert.Equal(t, "info", entry["level"])

	logger.LogTrip("trip-1", "user-1", "approved", false, "pending")
	assert.Equal(t, "error", lastEntry(t, buf)["level"])
}

func TestLogSecurityDetails(t *testing.T) {
	logger, buf := bufferedLogger(t, "info")

	logger.LogSecurity("access_denied", "user-1", "10.0.0.1", map[string]interface{}{"path": "/api/v1/trips"})
	entry := lastEntry(t, buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "/api/v1/trips", entry["path"])
	assert.Equal(t, "10.0.0.1", entry["ip"])
}

func TestLogPerformanceLevels(t *testing.T) {
	logger, buf := bufferedLogger(t, "debug")

	logger.LogPerformance("http_request", 6000, nil)
	assert.Equal(t, "error", lastEntry(t, buf)["level"])

	logger.LogPerformance("http_request", 1500, nil)
	assert.Equal(t, "warning", lastEntry(t, buf)["level"])

	logger.LogPerformance("http_request", 10, nil)
	assert.Equal(t, "debug", lastEntry(t, buf)["level"])
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(&config.LoggingConfig{Level: "warn", Output: "discard"}))
	require.NotNil(t, GetLogger())
	assert.Equal(t, "warning", GetLogger().GetLevel().String())
}
