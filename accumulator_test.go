package btscan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(addr string, at time.Time, newDevice, newData bool, updates int, rssi int) Event {
	return Event{
		Sighting: Sighting{
			Address:     addr,
			AddressType: "public",
			RSSI:        rssi,
			Fields:      []AdField{NewAdField(ADCompleteName, "Tag")},
			Time:        at,
		},
		IsNewDevice: newDevice,
		IsNewData:   newData,
		UpdateCount: updates,
	}
}

func TestAccumulatorHistory(t *testing.T) {
	t0 := time.Date(2021, 4, 21, 10, 0, 0, 0, time.UTC)
	acc := NewAccumulator(acme)

	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0, true, true, 1, -60))
	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0.Add(time.Second), false, false, 1, -61))
	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0.Add(2*time.Second), false, true, 2, -62))

	dev, ok := acc.Device("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, "Acme", dev.Manufacturer)
	assert.Equal(t, 3, dev.Detections)
	assert.Equal(t, 2, dev.Updates)
	require.Len(t, dev.Data, 3)

	assert.True(t, dev.Data[0].Full())
	assert.Equal(t, -60, *dev.Data[0].RSSI)
	assert.Equal(t, "public", dev.Data[0].AddrType)

	assert.False(t, dev.Data[1].Full())
	assert.Equal(t, Observation{TS: t0.Add(time.Second)}, dev.Data[1])

	assert.True(t, dev.Data[2].Full())
	assert.Equal(t, 2, dev.Data[2].UpdateCount)
	assert.Equal(t, -62, *dev.Data[2].RSSI)
}

func TestAccumulatorInvariants(t *testing.T) {
	t0 := time.Now()
	acc := NewAccumulator(nil)
	tr := NewTracker()

	for i := 0; i < 20; i++ {
		addr := []string{"AA", "BB", "CC"}[i%3]
		name := []string{"x", "y"}[i%2]
		acc.Apply(tr.Track(Sighting{
			Address: addr,
			RSSI:    -50 - i,
			Fields:  []AdField{NewAdField(ADCompleteName, name)},
			Time:    t0.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	require.Equal(t, 3, acc.Len())
	for _, dev := range acc.Devices() {
		assert.Equal(t, Unknown, dev.Manufacturer)
		assert.Len(t, dev.Data, dev.Detections)
		assert.LessOrEqual(t, dev.Updates, dev.Detections)

		full := 0
		for _, o := range dev.Data {
			if o.Full() {
				full++
			}
		}
		assert.Equal(t, dev.Updates, full, dev.Addr)
		assert.True(t, dev.Data[0].Full(), "first observation always carries data")
	}
}

func TestAccumulatorFirstEventWithoutNewDeviceFlag(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Apply(event("AA", time.Now(), false, false, 0, -70))

	dev, ok := acc.Device("AA")
	require.True(t, ok)
	assert.Equal(t, 1, dev.Detections)
	assert.Equal(t, 1, dev.Updates)
	assert.Equal(t, 1, dev.Data[0].UpdateCount)
}

func TestAccumulatorReturnsCopies(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Apply(event("AA", time.Now(), true, true, 1, -70))

	devs := acc.Devices()
	devs[0].Detections = 99
	devs[0].Data[0] = Observation{}

	dev, _ := acc.Device("AA")
	assert.Equal(t, 1, dev.Detections)
	assert.True(t, dev.Data[0].Full())
}

func TestAccumulatorSortsByAddress(t *testing.T) {
	acc := NewAccumulator(nil)
	for _, addr := range []string{"CC", "AA", "BB"} {
		acc.Apply(event(addr, time.Now(), true, true, 1, -70))
	}

	var addrs []string
	for _, d := range acc.Devices() {
		addrs = append(addrs, d.Addr)
	}
	assert.Equal(t, []string{"AA", "BB", "CC"}, addrs)

	_, ok := acc.Device("DD")
	assert.False(t, ok)
}

func TestAccumulatorThreeEvents(t *testing.T) {
	t0 := time.Now()
	acc := NewAccumulator(nil)

	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0, true, true, 1, -60))
	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0.Add(time.Second), false, true, 2, -60))
	acc.Apply(event("AA:BB:CC:DD:EE:FF", t0.Add(2*time.Second), false, false, 2, -60))

	dev, ok := acc.Device("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, 3, dev.Detections)
	assert.Equal(t, 2, dev.Updates)
	require.Len(t, dev.Data, 3)
	assert.True(t, dev.Data[0].Full())
	assert.True(t, dev.Data[1].Full())
	assert.Equal(t, Observation{TS: t0.Add(2 * time.Second)}, dev.Data[2])
}
