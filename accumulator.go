package btscan

import (
	"sort"
)

// Accumulator folds BLE events into one LEDevice per address.
//
// It is not safe for concurrent use. Events must be delivered from a single
// goroutine, which ScanLE guarantees by funnelling every backend callback
// through one channel.
type Accumulator struct {
	resolver Resolver
	devices  map[string]*LEDevice
}

// NewAccumulator returns an empty Accumulator. r may be nil, in which case
// every manufacturer is Unknown.
func NewAccumulator(r Resolver) *Accumulator {
	return &Accumulator{
		resolver: r,
		devices:  make(map[string]*LEDevice),
	}
}

// Apply records one event.
//
// The first event for an address creates the record with one detection and
// one update. Later events always count a detection; only events carrying
// new data count an update and record the advertisement, the others append
// a timestamp-only observation.
func (a *Accumulator) Apply(ev Event) {
	dev, known := a.devices[ev.Address]
	if !known {
		dev = &LEDevice{
			Addr:         ev.Address,
			Manufacturer: a.resolve(ev.Address),
			Detections:   1,
			Updates:      1,
			Data:         []Observation{fullObservation(ev)},
		}
		a.devices[ev.Address] = dev
		return
	}

	dev.Detections++
	if ev.IsNewData {
		dev.Updates++
		dev.Data = append(dev.Data, fullObservation(ev))
		return
	}
	dev.Data = append(dev.Data, Observation{TS: ev.Time})
}

// Len returns the number of distinct addresses seen.
func (a *Accumulator) Len() int {
	return len(a.devices)
}

// Device returns a copy of the record for addr.
func (a *Accumulator) Device(addr string) (LEDevice, bool) {
	dev, ok := a.devices[addr]
	if !ok {
		return LEDevice{}, false
	}
	return copyDevice(dev), true
}

// Devices returns a copy of every record, sorted by address.
func (a *Accumulator) Devices() []LEDevice {
	out := make([]LEDevice, 0, len(a.devices))
	for _, dev := range a.devices {
		out = append(out, copyDevice(dev))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Addr < out[j].Addr
	})
	return out
}

func (a *Accumulator) resolve(addr string) string {
	if a.resolver == nil {
		return Unknown
	}
	return a.resolver.Resolve(addr)
}

func fullObservation(ev Event) Observation {
	rssi := ev.RSSI
	updateCount := ev.UpdateCount
	if updateCount < 1 {
		updateCount = 1
	}
	return Observation{
		TS:          ev.Time,
		AddrType:    ev.AddressType,
		RSSI:        &rssi,
		Connectable: ev.Connectable,
		UpdateCount: updateCount,
		ScanData:    append([]AdField(nil), ev.Fields...),
	}
}

func copyDevice(dev *LEDevice) LEDevice {
	c := *dev
	c.Data = append([]Observation(nil), dev.Data...)
	return c
}
