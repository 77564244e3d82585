// Package logging builds the logrus logger shared by the commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mlsorensen/btscan/internal/config"
)

// New returns a logger configured by cfg and a function that releases its
// output. Reports go to stdout, so logs default to stderr.
func New(cfg config.LogConfig) (*logrus.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, closer, nil
}

// ParseLevel accepts the logrus level names; empty means warn.
func ParseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.WarnLevel, nil
	}
	level, err := logrus.ParseLevel(strings.ToLower(s))
	if err != nil {
		return 0, errors.Wrap(err, "log level")
	}
	return level, nil
}

func openOutput(name string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch name {
	case "", "stderr":
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}
	return f, f.Close, nil
}
