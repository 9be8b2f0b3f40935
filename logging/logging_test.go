package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesRotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := Setup(Options{Level: "debug", Format: "json", Dir: dir})
	require.NoError(t, err)
	WithComponent(logger, "api").WithField("request_id", "r-1").Debug("hello")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestSetup_Defaults(t *testing.T) {
	logger, closer, err := Setup(Options{})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
	assert.Equal(t, os.Stdout, logger.Out)
}

func TestSetup_BadLevel(t *testing.T) {
	_, _, err := Setup(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestSetup_LevelFiltersFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := Setup(Options{Level: "warn", Dir: dir})
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kept")
	assert.NotContains(t, string(raw), "dropped")
}
