package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3.0, cfg.ScanTime)
	assert.Equal(t, "bluez", cfg.Backend)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
scan_time: 8.5
backend: hci
manuf_file: /usr/share/wireshark/manuf
log:
  level: debug
serial:
  port: /dev/ttyACM0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8.5, cfg.ScanTime)
	assert.Equal(t, "hci", cfg.Backend)
	assert.Equal(t, "hci0", cfg.Adapter)
	assert.Equal(t, "/usr/share/wireshark/manuf", cfg.ManufFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "scan_time: [1, 2"))
	assert.ErrorContains(t, err, "parse config")

	_, err = LoadConfig(writeConfig(t, "scan_time: -1"))
	assert.ErrorContains(t, err, "scan_time must be positive")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"empty backend", func(c *Config) { c.Backend = "" }, "backend"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"zero baud", func(c *Config) { c.Serial.Baud = 0 }, "baud"},
		{"zero timeout", func(c *Config) { c.Serial.Timeout = 0 }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.msg)
		})
	}
}
