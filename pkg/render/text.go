// Package render formats scan results. Every renderer is a pure function of
// the records it is given; writing the result anywhere is up to the caller.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/mlsorensen/btscan"
)

// TimeFormat is used for every timestamp in text and XML output.
const TimeFormat = "2006-01-02 15:04:05.000000"

const (
	classicHeader = "< BLUETOOTH CLASSIC >\n\n" +
		"device bluetooth address\tdevice name\tseen (system time)\t(manufacturer)\n" +
		"\tservice name\tdescription\tservice provider\tprotocol\tservice host\tport"

	leHeader = "< BLUETOOTH LOW ENERGY >\n\n" +
		"device address\tdetections / updates\t(manufacturer)\n" +
		"\tseen (system time)\ttype\tconnectable\trssi\tupdates\t(manufacturer data)"
)

// Text renders Classic devices as a tab-delimited report.
func Text(devices []btscan.ClassicDevice) string {
	var b strings.Builder
	b.WriteString(classicHeader)
	for _, d := range devices {
		b.WriteString("\n\n")
		b.WriteString(d.Addr + "\t" + d.Name + "\t" + formatTime(d.TS) + "\t" + d.Manufacturer)
		for _, s := range d.Services {
			b.WriteString("\n")
			writeService(&b, s)
		}
	}
	return b.String()
}

func writeService(b *strings.Builder, s btscan.ServiceRecord) {
	field := func(key string, v *string) {
		b.WriteString("\t")
		if v == nil {
			b.WriteString(key + " undetected")
			return
		}
		b.WriteString(*v)
	}
	field("name", s.Name)
	field("description", s.Description)
	field("provider", s.Provider)
	field("protocol", s.Protocol)
	field("host", s.Host)
	b.WriteString("\t")
	if s.Port == nil {
		b.WriteString("port undetected")
	} else {
		b.WriteString(strconv.Itoa(*s.Port))
	}
}

// TextLE renders BLE devices as a tab-delimited report with one line per
// observation.
func TextLE(devices []btscan.LEDevice) string {
	var b strings.Builder
	b.WriteString(leHeader)
	for _, d := range devices {
		b.WriteString("\n\n")
		b.WriteString(d.Addr + "\t" + strconv.Itoa(d.Detections) + " / " + strconv.Itoa(d.Updates) + "\t" + d.Manufacturer)
		for _, o := range d.Data {
			b.WriteString("\n\t" + formatTime(o.TS))
			if !o.Full() {
				continue
			}
			addrType := o.AddrType
			if addrType == "" {
				addrType = "type undetected"
			}
			b.WriteString("\t" + addrType + "\t" + yesNo(o.Connectable))
			b.WriteString("\t")
			if o.RSSI != nil {
				b.WriteString(strconv.Itoa(*o.RSSI))
			} else {
				b.WriteString("rssi undetected")
			}
			b.WriteString("\t" + strconv.Itoa(o.UpdateCount) + "\t")
			for _, f := range o.ScanData {
				if f.Type == btscan.ADManufacturerData {
					b.WriteString(f.Value)
				}
			}
		}
	}
	return b.String()
}

func yesNo(v *bool) string {
	switch {
	case v == nil:
		return "connectable undetected"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

func formatTime(t time.Time) string {
	return t.Format(TimeFormat)
}
