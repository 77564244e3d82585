// Package btscan discovers nearby Bluetooth Classic and Bluetooth Low Energy
// devices and folds what it sees into per-device records that can be rendered
// as text, XML or JSON.
//
// Radio work is delegated to backends. A BLE backend registers itself by name
// from its package init() function, the same way database drivers do:
//
//	import _ "github.com/mlsorensen/btscan/pkg/scanners/all"
//
//	s, err := btscan.NewScanner("bluez", btscan.Options{})
package btscan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Unknown is reported for any manufacturer that cannot be resolved.
const Unknown = "unknown"

// Resolver maps a device address to a manufacturer name. Implementations
// return Unknown when the address is not covered.
type Resolver interface {
	Resolve(mac string) string
}

// Scanner is the generic interface for a BLE scan backend.
type Scanner interface {
	// Scan reports every advertisement it observes on out until ctx is done.
	// It must not send on out after it returns, and a send must never block
	// past the end of ctx. A nil error is returned when the scan ended because
	// ctx was canceled or timed out.
	Scan(ctx context.Context, out chan<- Sighting) error
}

// Options configures a backend created through NewScanner.
type Options struct {
	// AdapterID selects the host controller, e.g. "hci0". Empty means the
	// backend default.
	AdapterID string

	// Active requests scan responses in addition to advertisements where the
	// backend supports it. The hci backend does; bluez leaves it to the host
	// stack.
	Active bool

	Logger logrus.FieldLogger
}

// Log returns the configured logger or the logrus standard logger.
func (o Options) Log() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// --- Backend Registry ---

// Factory is a function that creates a new instance of a Scanner.
type Factory func(Options) (Scanner, error)

var (
	registry = make(map[string]Factory)
	regLock  = sync.RWMutex{}
)

// Register makes a scan backend available by name.
// This function should be called from the init() function of the backend's package.
func Register(name string, factory Factory) {
	regLock.Lock()
	defer regLock.Unlock()

	if _, found := registry[name]; found {
		logrus.Warnf("scan backend '%s' is being overwritten", name)
	}
	registry[name] = factory
}

// NewScanner creates a new Scanner from the backend registered under name.
func NewScanner(name string, opts Options) (Scanner, error) {
	regLock.RLock()
	factory, ok := registry[name]
	regLock.RUnlock()

	if !ok {
		return nil, errors.Errorf("no scan backend registered as '%s' (have %v)", name, Backends())
	}
	return factory(opts)
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	regLock.RLock()
	defer regLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Records ---

// Sighting is a single advertisement as reported by a backend.
type Sighting struct {
	Address     string
	AddressType string // "public", "random" or empty when the backend cannot tell
	RSSI        int
	Connectable *bool
	Fields      []AdField
	Time        time.Time
}

// Event is a Sighting annotated with what it means for the device record.
type Event struct {
	Sighting

	IsNewDevice bool
	IsNewData   bool

	// UpdateCount is the number of distinct advertisement payloads seen for
	// this address so far, including this one.
	UpdateCount int
}

// ServiceRecord describes one service offered by a Classic device. Every
// field is optional.
type ServiceRecord struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Provider    *string `json:"provider,omitempty"`
	Protocol    *string `json:"protocol,omitempty"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
}

// ClassicDevice is one device found by a Classic inquiry. It is complete when
// the inquiry returns and is not modified afterwards.
type ClassicDevice struct {
	Addr         string          `json:"addr"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	TS           time.Time       `json:"ts"`
	Services     []ServiceRecord `json:"services"`
}

// LEDevice is the accumulated record of one BLE address over a scan.
type LEDevice struct {
	Addr         string        `json:"addr"`
	Manufacturer string        `json:"manufacturer"`
	Detections   int           `json:"detections"`
	Updates      int           `json:"updates"`
	Data         []Observation `json:"data"`
}

// Observation is one entry in an LEDevice history. When the event carried no
// new advertisement data only TS is set.
type Observation struct {
	TS          time.Time `json:"ts"`
	AddrType    string    `json:"addrType,omitempty"`
	RSSI        *int      `json:"rssi,omitempty"`
	Connectable *bool     `json:"connectable,omitempty"`
	UpdateCount int       `json:"updateCount,omitempty"`
	ScanData    []AdField `json:"scanData,omitempty"`
}

// Full reports whether the observation recorded advertisement data.
func (o Observation) Full() bool {
	return o.UpdateCount > 0
}

// InquiryResult is what a Classic inquiry reports for one device.
type InquiryResult struct {
	Address  string
	Name     string
	Services []ServiceRecord
}

// Inquirer runs a blocking Classic inquiry.
type Inquirer interface {
	Inquiry(ctx context.Context, duration time.Duration) ([]InquiryResult, error)
}
