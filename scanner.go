package btscan

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// sightingBuffer absorbs bursts from backends that call back from several
// goroutines at once.
const sightingBuffer = 64

// ScanLE runs s for duration, or until ctx is done, and returns one record per
// address seen. Records are sorted by address.
func ScanLE(ctx context.Context, s Scanner, duration time.Duration, r Resolver, log logrus.FieldLogger) ([]LEDevice, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	sightings := make(chan Sighting, sightingBuffer)
	scanErrChan := make(chan error, 1)

	go func() {
		log.Debugf("Starting BLE scan for %s...", duration)
		scanErrChan <- s.Scan(ctx, sightings)
	}()

	tracker := NewTracker()
	acc := NewAccumulator(r)
	apply := func(sg Sighting) {
		ev := tracker.Track(sg)
		if ev.IsNewDevice {
			log.Debugf("    --> New device %s (rssi %d)", ev.Address, ev.RSSI)
		}
		acc.Apply(ev)
	}

	var scanErr error
loop:
	for {
		select {
		case sg := <-sightings:
			apply(sg)
		case scanErr = <-scanErrChan:
			break loop
		}
	}

	// The backend has returned and will not send again; keep what is buffered.
	for drained := false; !drained; {
		select {
		case sg := <-sightings:
			apply(sg)
		default:
			drained = true
		}
	}

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		return nil, pkgerrors.Wrap(scanErr, "ble scan")
	}

	log.Debugf("BLE scan finished. Found %d unique device(s).", acc.Len())
	return acc.Devices(), nil
}

// ScanClassic runs one Classic inquiry and annotates the results with their
// manufacturer. Every device is stamped with the time the inquiry returned.
func ScanClassic(ctx context.Context, inq Inquirer, duration time.Duration, r Resolver, log logrus.FieldLogger) ([]ClassicDevice, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.Debugf("Starting Classic inquiry for %s...", duration)

	results, err := inq.Inquiry(ctx, duration)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "classic inquiry")
	}

	now := time.Now()
	devices := make([]ClassicDevice, 0, len(results))
	for _, res := range results {
		manuf := Unknown
		if r != nil {
			manuf = r.Resolve(res.Address)
		}
		services := res.Services
		if services == nil {
			services = []ServiceRecord{}
		}
		devices = append(devices, ClassicDevice{
			Addr:         res.Address,
			Name:         res.Name,
			Manufacturer: manuf,
			TS:           now,
			Services:     services,
		})
	}

	log.Debugf("Classic inquiry finished. Found %d device(s).", len(devices))
	return devices, nil
}
