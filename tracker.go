package btscan

import (
	"strconv"
	"strings"
	"time"
)

// Tracker turns raw sightings into events. It remembers the last payload per
// address so it can tell a repeated advertisement from a changed one.
//
// Signal strength is excluded from the comparison: it changes on almost every
// packet and would make every sighting look new.
type Tracker struct {
	seen map[string]*trackState
	now  func() time.Time
}

type trackState struct {
	fingerprint string
	updates     int
}

// NewTracker returns a Tracker with no history.
func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[string]*trackState),
		now:  time.Now,
	}
}

// Track classifies s against the history for its address.
func (t *Tracker) Track(s Sighting) Event {
	if s.Time.IsZero() {
		s.Time = t.now()
	}
	fp := fingerprint(s)

	st, ok := t.seen[s.Address]
	if !ok {
		t.seen[s.Address] = &trackState{fingerprint: fp, updates: 1}
		return Event{Sighting: s, IsNewDevice: true, IsNewData: true, UpdateCount: 1}
	}

	ev := Event{Sighting: s}
	if fp != st.fingerprint {
		st.fingerprint = fp
		st.updates++
		ev.IsNewData = true
	}
	ev.UpdateCount = st.updates
	return ev
}

// fingerprint identifies the payload of s. Values are length-prefixed so
// that no field content can imitate a field boundary.
func fingerprint(s Sighting) string {
	var b strings.Builder
	writeValue(&b, s.AddressType)
	if s.Connectable != nil {
		b.WriteString(strconv.FormatBool(*s.Connectable))
	}
	for _, f := range s.Fields {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(int(f.Type)))
		b.WriteByte('=')
		writeValue(&b, f.Value)
	}
	return b.String()
}

func writeValue(b *strings.Builder, v string) {
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteByte(':')
	b.WriteString(v)
}
