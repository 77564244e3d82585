package render

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/mlsorensen/btscan"
)

// Root element names for the two scan kinds.
const (
	RootClassic = "bluetooth"
	RootLE      = "btle"
)

// Lists become repeated elements named by depth: device directly below the
// root, infos for any list inside a device, and info for tuple members.

type xmlClassicReport struct {
	XMLName xml.Name
	Devices []xmlClassicDevice `xml:"device"`
}

type xmlClassicDevice struct {
	Addr         string       `xml:"addr"`
	Name         string       `xml:"name"`
	Manufacturer string       `xml:"manufacturer"`
	TS           string       `xml:"ts"`
	Services     []xmlService `xml:"services>infos"`
}

type xmlService struct {
	Name        *string `xml:"name,omitempty"`
	Description *string `xml:"description,omitempty"`
	Provider    *string `xml:"provider,omitempty"`
	Protocol    *string `xml:"protocol,omitempty"`
	Host        *string `xml:"host,omitempty"`
	Port        *int    `xml:"port,omitempty"`
}

type xmlLEReport struct {
	XMLName xml.Name
	Devices []xmlLEDevice `xml:"device"`
}

type xmlLEDevice struct {
	Addr         string           `xml:"addr"`
	Manufacturer string           `xml:"manufacturer"`
	Detections   int              `xml:"detections"`
	Updates      int              `xml:"updates"`
	Data         []xmlObservation `xml:"data>infos"`
}

type xmlObservation struct {
	TS          string      `xml:"ts"`
	AddrType    string      `xml:"addrType,omitempty"`
	RSSI        *int        `xml:"rssi,omitempty"`
	Connectable *bool       `xml:"connectable,omitempty"`
	UpdateCount int         `xml:"updateCount,omitempty"`
	ScanData    []xmlAdItem `xml:"scanData>infos"`
}

// xmlAdItem renders an advertising field as a tuple of info elements:
// type, description, value.
type xmlAdItem struct {
	Info []string `xml:"info"`
}

// XML renders Classic devices under a root element named root.
func XML(root string, devices []btscan.ClassicDevice) (string, error) {
	report := xmlClassicReport{XMLName: xml.Name{Local: root}}
	for _, d := range devices {
		xd := xmlClassicDevice{
			Addr:         d.Addr,
			Name:         d.Name,
			Manufacturer: d.Manufacturer,
			TS:           formatTime(d.TS),
		}
		for _, s := range d.Services {
			xd.Services = append(xd.Services, xmlService(s))
		}
		report.Devices = append(report.Devices, xd)
	}
	return marshalIndent(report)
}

// XMLLE renders BLE devices under a root element named root.
func XMLLE(root string, devices []btscan.LEDevice) (string, error) {
	report := xmlLEReport{XMLName: xml.Name{Local: root}}
	for _, d := range devices {
		xd := xmlLEDevice{
			Addr:         d.Addr,
			Manufacturer: d.Manufacturer,
			Detections:   d.Detections,
			Updates:      d.Updates,
		}
		for _, o := range d.Data {
			xo := xmlObservation{
				TS:          formatTime(o.TS),
				AddrType:    o.AddrType,
				RSSI:        o.RSSI,
				Connectable: o.Connectable,
				UpdateCount: o.UpdateCount,
			}
			for _, f := range o.ScanData {
				xo.ScanData = append(xo.ScanData, xmlAdItem{
					Info: []string{strconv.Itoa(int(f.Type)), f.Description, f.Value},
				})
			}
			xd.Data = append(xd.Data, xo)
		}
		report.Devices = append(report.Devices, xd)
	}
	return marshalIndent(report)
}

// marshalIndent produces four-space indented XML with CRLF line endings.
func marshalIndent(v any) (string, error) {
	out, err := xml.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", err
	}
	return string(bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))), nil
}
