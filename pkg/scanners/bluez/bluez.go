// Package bluez is the default BLE backend. It drives the host Bluetooth
// stack through tinygo.org/x/bluetooth, which talks to BlueZ over D-Bus on
// Linux and to the native stack elsewhere.
//
// To use it, import this package for its side effects:
//
//	import _ "github.com/mlsorensen/btscan/pkg/scanners/bluez"
package bluez

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/btscan"
)

// Name is the backend name passed to btscan.NewScanner.
const Name = "bluez"

func init() {
	btscan.Register(Name, New)
}

var _ btscan.Scanner = (*Scanner)(nil)

// Scanner reports advertisements seen by one host adapter.
type Scanner struct {
	adapter *bluetooth.Adapter
	log     logrus.FieldLogger
}

// New creates a Scanner for opts.AdapterID, or the default adapter when it
// is empty.
//
// opts.Active is ignored: the host stack picks the scan type and merges scan
// responses into the reported payload on its own.
func New(opts btscan.Options) (btscan.Scanner, error) {
	adapter, err := adapterFor(opts.AdapterID)
	if err != nil {
		return nil, err
	}
	log := opts.Log().WithField("backend", Name)
	if opts.Active {
		log.Debug("Active scanning is controlled by the host stack, ignoring")
	}
	return &Scanner{
		adapter: adapter,
		log:     log,
	}, nil
}

// Scan enables the adapter and reports advertisements until ctx is done.
func (s *Scanner) Scan(ctx context.Context, out chan<- btscan.Sighting) error {
	s.log.Info("Enabling Bluetooth adapter...")
	if err := s.adapter.Enable(); err != nil {
		return errors.Wrap(err, "enable adapter")
	}

	// The handler may be called from several goroutines at once.
	handler := func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		sg := sightingFromResult(result, time.Now())
		select {
		case out <- sg:
		case <-ctx.Done():
		}
	}

	scanErrChan := make(chan error, 1)
	go func() {
		s.log.Debug("Starting blocking scan...")
		scanErrChan <- s.adapter.Scan(handler)
	}()

	select {
	case err := <-scanErrChan:
		// Scan only returns early when it could not start.
		return errors.Wrap(err, "start scan")
	case <-ctx.Done():
	}

	s.log.Debug("Timeout reached. Stopping scan...")
	if err := s.adapter.StopScan(); err != nil {
		s.log.Warnf("Warning: failed to stop scan cleanly: %v", err)
	}
	if err := <-scanErrChan; err != nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}

// sightingFromResult converts a tinygo scan result. The payload is exposed
// field by field, so the advertisement is rebuilt from the fields the stack
// decoded.
func sightingFromResult(r bluetooth.ScanResult, at time.Time) btscan.Sighting {
	addrType := "public"
	if r.Address.IsRandom() {
		addrType = "random"
	}

	var fields []btscan.AdField
	if r.AdvertisementPayload != nil {
		if raw := r.AdvertisementPayload.Bytes(); len(raw) > 0 {
			fields = btscan.ParseAdvertisement(raw)
		} else {
			fields = payloadFields(r.AdvertisementPayload)
		}
	}

	return btscan.Sighting{
		Address:     r.Address.String(),
		AddressType: addrType,
		RSSI:        int(r.RSSI),
		Fields:      fields,
		Time:        at,
	}
}

func payloadFields(p bluetooth.AdvertisementPayload) []btscan.AdField {
	var fields []btscan.AdField
	if name := p.LocalName(); name != "" {
		fields = append(fields, btscan.NewAdField(btscan.ADCompleteName, name))
	}
	for _, sd := range p.ServiceData() {
		fields = append(fields, btscan.NewAdField(btscan.ADServiceData128, sd.UUID.String()+":"+hex.EncodeToString(sd.Data)))
	}
	for _, md := range p.ManufacturerData() {
		fields = append(fields, btscan.ManufacturerField(md.CompanyID, md.Data))
	}
	btscan.SortFields(fields)
	return fields
}
