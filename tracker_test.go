package btscan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerFirstSighting(t *testing.T) {
	tr := NewTracker()
	ev := tr.Track(Sighting{Address: "AA:BB:CC:DD:EE:FF", RSSI: -70})

	assert.True(t, ev.IsNewDevice)
	assert.True(t, ev.IsNewData)
	assert.Equal(t, 1, ev.UpdateCount)
	assert.False(t, ev.Time.IsZero(), "missing time is filled in")
}

func TestTrackerIgnoresSignalStrength(t *testing.T) {
	tr := NewTracker()
	fields := []AdField{NewAdField(ADCompleteName, "Tag")}

	tr.Track(Sighting{Address: "AA", RSSI: -70, Fields: fields})
	ev := tr.Track(Sighting{Address: "AA", RSSI: -40, Fields: fields})

	assert.False(t, ev.IsNewDevice)
	assert.False(t, ev.IsNewData)
	assert.Equal(t, 1, ev.UpdateCount)
	assert.Equal(t, -40, ev.RSSI)
}

func TestTrackerCountsChanges(t *testing.T) {
	tr := NewTracker()
	at := time.Date(2021, 4, 21, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return at }

	steps := []struct {
		s       Sighting
		newData bool
		count   int
	}{
		{Sighting{Address: "AA", Fields: []AdField{NewAdField(ADCompleteName, "a")}}, true, 1},
		{Sighting{Address: "AA", Fields: []AdField{NewAdField(ADCompleteName, "b")}}, true, 2},
		{Sighting{Address: "AA", Fields: []AdField{NewAdField(ADCompleteName, "b")}}, false, 2},
		{Sighting{Address: "AA", Connectable: boolRef(true), Fields: []AdField{NewAdField(ADCompleteName, "b")}}, true, 3},
		{Sighting{Address: "AA", AddressType: "random", Connectable: boolRef(true), Fields: []AdField{NewAdField(ADCompleteName, "b")}}, true, 4},
	}
	for i, step := range steps {
		ev := tr.Track(step.s)
		assert.Equal(t, step.newData, ev.IsNewData, "step %d", i)
		assert.Equal(t, step.count, ev.UpdateCount, "step %d", i)
		assert.Equal(t, at, ev.Time, "step %d", i)
	}
}

func TestTrackerKeepsAddressesApart(t *testing.T) {
	tr := NewTracker()
	tr.Track(Sighting{Address: "AA"})
	ev := tr.Track(Sighting{Address: "BB"})

	require.True(t, ev.IsNewDevice)
	assert.Equal(t, 1, ev.UpdateCount)
}

func TestTrackerValuesCannotForgeFieldBoundaries(t *testing.T) {
	tr := NewTracker()

	tr.Track(Sighting{Address: "AA", Fields: []AdField{NewAdField(ADCompleteName, "a|1=b")}})
	ev := tr.Track(Sighting{Address: "AA", Fields: []AdField{
		NewAdField(ADCompleteName, "a"),
		NewAdField(ADFlags, "b"),
	}})

	assert.True(t, ev.IsNewData)
	assert.Equal(t, 2, ev.UpdateCount)
}
