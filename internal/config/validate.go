package config

import (
	"strings"

	"github.com/pkg/errors"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.ScanTime <= 0 {
		return errors.Errorf("scan_time must be positive, got %v", c.ScanTime)
	}
	if c.Backend == "" {
		return errors.New("backend must not be empty")
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Serial.Baud <= 0 {
		return errors.Errorf("serial baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.Timeout <= 0 {
		return errors.Errorf("serial timeout must be positive, got %v", c.Serial.Timeout)
	}
	return nil
}
