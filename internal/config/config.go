package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the defaults for both commands. Command line flags override
// any value set here.
type Config struct {
	ScanTime  float64      `yaml:"scan_time"`  // seconds per scan kind
	Backend   string       `yaml:"backend"`    // BLE backend name, e.g. "bluez"
	Adapter   string       `yaml:"adapter"`    // e.g. "hci0"
	Active    bool         `yaml:"active"`     // request scan responses
	ManufFile string       `yaml:"manuf_file"` // empty means probe the default paths
	Log       LogConfig    `yaml:"log"`
	Serial    SerialConfig `yaml:"serial"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr, stdout or a file path
}

// SerialConfig holds the settings for an ESP32 scanner on a serial port.
type SerialConfig struct {
	Port    string  `yaml:"port"`
	Baud    int     `yaml:"baud"`
	Timeout float64 `yaml:"timeout"` // seconds
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ScanTime: 3.0,
		Backend:  "bluez",
		Adapter:  "hci0",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Serial: SerialConfig{
			Port:    "/dev/ttyUSB0",
			Baud:    115200,
			Timeout: 10,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults. Keys missing
// from the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
