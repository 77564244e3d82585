package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mlsorensen/btscan"
	"github.com/mlsorensen/btscan/internal/config"
	"github.com/mlsorensen/btscan/internal/logging"
	"github.com/mlsorensen/btscan/pkg/oui"
	"github.com/mlsorensen/btscan/pkg/render"
)

// run performs the scans selected by c and writes every report. It returns
// the process exit code.
func run(c *cli.Context, d deps) int {
	cfg, err := loadConfig(c)
	if err != nil {
		fmt.Fprintf(d.stderr, "btscan: %v\n", err)
		return exitUsage
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(d.stderr, "btscan: %v\n", err)
		return exitUsage
	}
	defer closeLog()

	// Unknown backends are a usage error, found before any scan starts.
	wantClassic, wantLE := scanKinds(c.Bool("classic"), c.Bool("le"))
	var scanner btscan.Scanner
	if wantLE {
		scanner, err = d.newScanner(cfg.Backend, btscan.Options{
			AdapterID: cfg.Adapter,
			Active:    cfg.Active,
			Logger:    logger,
		})
		if err != nil {
			fmt.Fprintf(d.stderr, "btscan: %v\n", err)
			return exitUsage
		}
	}

	table := loadManufacturers(d, cfg.ManufFile, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	duration := time.Duration(cfg.ScanTime * float64(time.Second))
	code := exitOK
	var report render.Report

	if wantClassic {
		devices, err := btscan.ScanClassic(ctx, d.newInquirer(cfg.Adapter, logger), duration, table, logger)
		if err != nil {
			logger.WithError(err).Error("Classic scan failed")
			fmt.Fprintf(d.stderr, "btscan: %v\n", err)
			code = exitScan
		} else {
			report.Classic = devices
		}
	}

	if wantLE && ctx.Err() == nil {
		devices, err := btscan.ScanLE(ctx, scanner, duration, table, logger)
		if err != nil {
			logger.WithError(err).Error("BLE scan failed")
			fmt.Fprintf(d.stderr, "btscan: %v\n", err)
			code = exitScan
		} else {
			report.LE = devices
		}
	}

	outputs, err := buildOutputs(report, destinations{
		text: c.String("writetxt"),
		xml:  c.String("xml"),
		json: c.String("json"),
	})
	if err != nil {
		fmt.Fprintf(d.stderr, "btscan: %v\n", err)
		return exitOutput
	}
	if err := writeOutputs(d, outputs, logger); err != nil && code == exitOK {
		code = exitOutput
	}
	return code
}

// scanKinds resolves the -c and -l flags: either alone selects one kind,
// neither or both select both.
func scanKinds(classicOnly, leOnly bool) (classic, le bool) {
	if classicOnly == leOnly {
		return true, true
	}
	return classicOnly, leOnly
}

// loadConfig reads the optional config file and applies the flags that were
// given on the command line over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("scantime") {
		cfg.ScanTime = c.Float64("scantime")
	}
	if v := c.String("manuf"); v != "" {
		cfg.ManufFile = v
	}
	if v := c.String("backend"); v != "" {
		cfg.Backend = v
	}
	if v := c.String("adapter"); v != "" {
		cfg.Adapter = v
	}
	if c.Bool("active") {
		cfg.Active = true
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, cfg.Validate()
}

// loadManufacturers loads the configured OUI file, or the first default
// location that exists. Without one every manufacturer is unknown.
func loadManufacturers(d deps, path string, log logrus.FieldLogger) *oui.Table {
	if path != "" {
		table, err := oui.Load(d.fsys, path)
		if err != nil {
			log.Warnf("Manufacturer file not usable, manufacturers will be %q: %v", btscan.Unknown, err)
			return oui.New()
		}
		log.Debugf("Loaded %d manufacturer prefixes from %s", table.Len(), path)
		return table
	}

	home, _ := d.home()
	table, used, err := oui.LoadFirst(d.fsys, oui.DefaultPaths(home))
	switch {
	case err != nil:
		log.Warnf("Manufacturer file not usable, manufacturers will be %q: %v", btscan.Unknown, err)
		return oui.New()
	case used == "":
		log.Warnf("No %s found, manufacturers will be %q", oui.DefaultFile, btscan.Unknown)
	default:
		log.Debugf("Loaded %d manufacturer prefixes from %s", table.Len(), used)
	}
	return table
}
