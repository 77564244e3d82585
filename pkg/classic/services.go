package classic

import (
	"sort"
	"strings"

	"github.com/mlsorensen/btscan"
)

const baseUUIDSuffix = "-0000-1000-8000-00805f9b34fb"

type profile struct {
	name     string
	protocol string
}

// profiles maps 16-bit service class identifiers from the Bluetooth SIG
// assigned numbers to a name and the transport protocol the profile runs on.
var profiles = map[string]profile{
	"1101": {"Serial Port", "RFCOMM"},
	"1103": {"Dialup Networking", "RFCOMM"},
	"1104": {"IrMC Sync", "RFCOMM"},
	"1105": {"OBEX Object Push", "RFCOMM"},
	"1106": {"OBEX File Transfer", "RFCOMM"},
	"1108": {"Headset", "RFCOMM"},
	"110a": {"Audio Source", "L2CAP"},
	"110b": {"Audio Sink", "L2CAP"},
	"110c": {"A/V Remote Control Target", "L2CAP"},
	"110d": {"Advanced Audio Distribution", "L2CAP"},
	"110e": {"A/V Remote Control", "L2CAP"},
	"110f": {"A/V Remote Control Controller", "L2CAP"},
	"1112": {"Headset Audio Gateway", "RFCOMM"},
	"1115": {"PAN User", "L2CAP"},
	"1116": {"Network Access Point", "L2CAP"},
	"1117": {"Group Ad-hoc Network", "L2CAP"},
	"111e": {"Handsfree", "RFCOMM"},
	"111f": {"Handsfree Audio Gateway", "RFCOMM"},
	"1124": {"Human Interface Device", "L2CAP"},
	"112d": {"SIM Access", "RFCOMM"},
	"112f": {"Phonebook Access Server", "RFCOMM"},
	"1132": {"Message Access Server", "RFCOMM"},
	"1133": {"Message Notification Server", "RFCOMM"},
	"1200": {"PnP Information", "L2CAP"},
	"1203": {"Generic Audio", ""},
	"1800": {"Generic Access", "L2CAP"},
	"1801": {"Generic Attribute", "L2CAP"},
}

// Services describes each UUID r advertises as a service record. Profiles
// outside the assigned numbers table keep only their UUID and host.
func Services(r Result) []btscan.ServiceRecord {
	out := make([]btscan.ServiceRecord, 0, len(r.UUIDs))
	for _, uuid := range r.UUIDs {
		uuid := strings.ToLower(uuid)
		host := r.Address
		rec := btscan.ServiceRecord{Description: &uuid, Host: &host}
		if p, ok := profiles[shortUUID(uuid)]; ok {
			name := p.name
			rec.Name = &name
			if p.protocol != "" {
				protocol := p.protocol
				rec.Protocol = &protocol
			}
		}
		out = append(out, rec)
	}
	return out
}

// shortUUID returns the 16-bit form of a UUID built on the Bluetooth base
// UUID, or "" for any other UUID.
func shortUUID(uuid string) string {
	if len(uuid) != 36 || !strings.HasPrefix(uuid, "0000") || !strings.HasSuffix(uuid, baseUUIDSuffix) {
		return ""
	}
	return uuid[4:8]
}

func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool {
		return rs[i].Address < rs[j].Address
	})
}
