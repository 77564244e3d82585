// Package mock provides a simulated BLE backend.
// It is intended for development and testing purposes when no Bluetooth
// adapter is available.
package mock

import (
	"context"
	"encoding/hex"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlsorensen/btscan"
)

// Name is the backend name passed to btscan.NewScanner.
const Name = "mock"

// This init function registers the mock backend with the central registry.
// To use it, you must explicitly import this package.
func init() {
	btscan.Register(Name, New)
}

// This line is the compile-time check. It will fail to compile if *Scanner
// ever stops satisfying the btscan.Scanner interface.
var _ btscan.Scanner = (*Scanner)(nil)

// Device is one simulated advertiser.
type Device struct {
	Address     string
	Random      bool
	Connectable bool
	Name        string
	CompanyID   uint16
	RSSI        int
	Battery     int
}

// DefaultDevices is the population used by New.
var DefaultDevices = []Device{
	{Address: "F4:5C:89:12:34:56", Connectable: true, Name: "Living Room Speaker", CompanyID: 0x004c, RSSI: -48, Battery: 100},
	{Address: "00:1A:7D:DA:71:13", Connectable: true, Name: "LUNAR-3F2A", CompanyID: 0x0059, RSSI: -63, Battery: 87},
	{Address: "5E:21:9B:04:C7:E2", Random: true, CompanyID: 0x0006, RSSI: -77, Battery: 54},
	{Address: "C8:FD:19:44:0B:9A", Name: "Tag", CompanyID: 0x0157, RSSI: -85, Battery: 12},
}

// Config controls the simulation.
type Config struct {
	Devices  []Device
	Interval time.Duration // time between advertisements
	Seed     int64
	Logger   logrus.FieldLogger
}

// Scanner is a simulated BLE backend.
type Scanner struct {
	mu      sync.Mutex
	devices []Device
	counter []byte
	rng     *rand.Rand

	interval time.Duration
	log      logrus.FieldLogger
}

// New creates a mock backend over DefaultDevices.
func New(opts btscan.Options) (btscan.Scanner, error) {
	return NewWithConfig(Config{
		Devices:  DefaultDevices,
		Interval: 50 * time.Millisecond,
		Seed:     time.Now().UnixNano(),
		Logger:   opts.Log(),
	}), nil
}

// NewWithConfig creates a mock backend from cfg.
func NewWithConfig(cfg Config) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Scanner{
		devices:  append([]Device(nil), cfg.Devices...),
		counter:  make([]byte, len(cfg.Devices)),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		interval: cfg.Interval,
		log:      cfg.Logger.WithField("backend", Name),
	}
}

// Scan emits a sighting every interval until ctx is done.
func (s *Scanner) Scan(ctx context.Context, out chan<- btscan.Sighting) error {
	s.log.Info("MOCK: Scanning simulated devices...")
	defer s.log.Debug("MOCK: Simulation stopped.")

	if len(s.devices) == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sg := s.next(time.Now())
			select {
			case out <- sg:
			case <-ctx.Done():
				return nil
			}

		case <-ctx.Done(): // Parent context was cancelled
			return nil
		}
	}
}

// next advances the simulation by one advertisement.
func (s *Scanner) next(now time.Time) btscan.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rng.Intn(len(s.devices))
	d := &s.devices[i]

	// Signal strength wanders a little on every packet.
	d.RSSI += s.rng.Intn(5) - 2
	if d.RSSI > -20 {
		d.RSSI = -20
	}
	if d.RSSI < -100 {
		d.RSSI = -100
	}

	// Roughly one packet in eight carries changed data.
	if s.rng.Intn(8) == 0 {
		s.counter[i]++
		if d.Battery > 0 && s.rng.Intn(2) == 0 {
			d.Battery--
		}
	}

	return sighting(*d, s.counter[i], now)
}

func sighting(d Device, counter byte, now time.Time) btscan.Sighting {
	addrType := "public"
	if d.Random {
		addrType = "random"
	}
	connectable := d.Connectable

	fields := []btscan.AdField{
		btscan.NewAdField(btscan.ADFlags, "06"),
		// Battery Service data: UUID 0x180f followed by the level.
		btscan.NewAdField(btscan.ADServiceData16, hex.EncodeToString([]byte{0x0f, 0x18, byte(d.Battery)})),
		btscan.ManufacturerField(d.CompanyID, []byte{0x01, counter}),
	}
	if d.Name != "" {
		fields = append(fields, btscan.NewAdField(btscan.ADCompleteName, d.Name))
	}
	btscan.SortFields(fields)

	return btscan.Sighting{
		Address:     d.Address,
		AddressType: addrType,
		RSSI:        d.RSSI,
		Connectable: &connectable,
		Fields:      fields,
		Time:        now,
	}
}
