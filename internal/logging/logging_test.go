package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlsorensen/btscan/internal/config"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logrus.Level{
		"":      logrus.WarnLevel,
		"debug": logrus.DebugLevel,
		"INFO":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	logger, closer, err := New(config.DefaultConfig().Log)
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.Equal(t, os.Stderr, logger.Out)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btscan.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.WithField("devices", 3).Info("BLE scan finished")
	logger.Debug("dropped")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "BLE scan finished", entry["msg"])
	assert.Equal(t, float64(3), entry["devices"])
	assert.NotContains(t, string(data), "dropped")
}

func TestNewBadOutput(t *testing.T) {
	_, _, err := New(config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.ErrorContains(t, err, "open log file")
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
