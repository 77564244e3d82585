package esp32

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mlsorensen/btscan"
)

var (
	macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	separator  = regexp.MustCompile(`[,\t]`)
)

// ParseLine parses a device line of the form addr[,rssi[,name]]. Fields may
// also be tab separated. ok is false when the line does not start with a MAC
// address.
func ParseLine(line string) (sg btscan.Sighting, ok bool) {
	parts := separator.Split(strings.TrimSpace(line), 3)
	addr := strings.TrimSpace(parts[0])
	if !macPattern.MatchString(addr) {
		return btscan.Sighting{}, false
	}
	sg.Address = strings.ToUpper(strings.ReplaceAll(addr, "-", ":"))

	if len(parts) > 1 {
		if rssi, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			sg.RSSI = rssi
		}
	}
	if len(parts) > 2 {
		if name := strings.TrimSpace(parts[2]); name != "" {
			sg.Fields = []btscan.AdField{btscan.NewAdField(btscan.ADCompleteName, name)}
		}
	}
	return sg, true
}

// Sightings parses every device line in the block. Other lines are skipped.
func (b Block) Sightings() []btscan.Sighting {
	var out []btscan.Sighting
	for _, line := range b.Lines {
		sg, ok := ParseLine(line)
		if !ok {
			continue
		}
		sg.Time = b.Received
		out = append(out, sg)
	}
	return out
}
