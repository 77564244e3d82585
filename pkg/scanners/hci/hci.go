//go:build linux

package hci

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mlsorensen/btscan"
)

func init() {
	btscan.Register(Name, New)
}

var _ btscan.Scanner = (*Scanner)(nil)

// Scanner reports advertisements received on one HCI device.
type Scanner struct {
	deviceID int
	active   bool
	log      logrus.FieldLogger
}

// New creates a Scanner for opts.AdapterID ("hci0", "hci1", ...).
func New(opts btscan.Options) (btscan.Scanner, error) {
	id, err := ParseDeviceID(opts.AdapterID)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		deviceID: id,
		active:   opts.Active,
		log:      opts.Log().WithField("backend", Name),
	}, nil
}

// scanParams selects active scanning, which asks every advertiser for its
// scan response, or passive scanning.
func (s *Scanner) scanParams() cmd.LESetScanParameters {
	var scanType uint8 // passive
	if s.active {
		scanType = 0x01
	}
	return cmd.LESetScanParameters{
		LEScanType:           scanType,
		LEScanInterval:       0x0010, // N * 0.625msec
		LEScanWindow:         0x0010, // N * 0.625msec
		OwnAddressType:       0x00,   // public
		ScanningFilterPolicy: 0x00,   // accept all
	}
}

func (s *Scanner) deviceOptions() []ble.Option {
	return []ble.Option{
		ble.OptDeviceID(s.deviceID),
		ble.OptScanParams(s.scanParams()),
	}
}

// Scan opens the HCI device and reports advertisements until ctx is done.
func (s *Scanner) Scan(ctx context.Context, out chan<- btscan.Sighting) error {
	s.log.Infof("Opening HCI device hci%d (active=%t)...", s.deviceID, s.active)
	dev, err := linux.NewDevice(s.deviceOptions()...)
	if err != nil {
		return errors.Wrapf(err, "open hci%d", s.deviceID)
	}
	defer func() {
		if err := dev.Stop(); err != nil {
			s.log.Warnf("Warning: failed to close HCI device: %v", err)
		}
	}()

	handler := func(a ble.Advertisement) {
		select {
		case out <- sightingFromAdvertisement(a, time.Now()):
		case <-ctx.Done():
		}
	}

	// allowDup: every advertisement counts as a detection.
	err = dev.Scan(ctx, true, handler)
	if err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}

// ParseDeviceID turns "hci1" or "1" into 1. An empty id selects hci0.
func ParseDeviceID(adapter string) (int, error) {
	if adapter == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(strings.TrimPrefix(adapter, "hci"))
	if err != nil || id < 0 {
		return 0, errors.Errorf("invalid HCI adapter %q", adapter)
	}
	return id, nil
}
