package render

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlsorensen/btscan"
)

var (
	seen0 = time.Date(2021, 4, 21, 10, 0, 0, 0, time.Local)
	seen1 = seen0.Add(1500 * time.Millisecond)
	seen2 = seen0.Add(3 * time.Second)
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func classicFixture() []btscan.ClassicDevice {
	return []btscan.ClassicDevice{
		{
			Addr:         "F4:5C:89:12:34:56",
			Name:         "Phone",
			Manufacturer: "Acme",
			TS:           seen0,
			Services: []btscan.ServiceRecord{
				{Name: strPtr("Serial Port"), Protocol: strPtr("RFCOMM"), Port: intPtr(1)},
				{Host: strPtr("F4:5C:89:12:34:56")},
			},
		},
		{
			Addr:         "00:11:22:33:44:55",
			Manufacturer: btscan.Unknown,
			TS:           seen0,
			Services:     []btscan.ServiceRecord{},
		},
	}
}

func leFixture() []btscan.LEDevice {
	manuf := btscan.ManufacturerField(0x004c, []byte{0x10, 0x05})
	return []btscan.LEDevice{
		{
			Addr:         "AA:BB:CC:DD:EE:FF",
			Manufacturer: "Acme",
			Detections:   3,
			Updates:      2,
			Data: []btscan.Observation{
				{
					TS: seen0, AddrType: "random", RSSI: intPtr(-60), Connectable: boolPtr(true), UpdateCount: 1,
					ScanData: []btscan.AdField{btscan.NewAdField(btscan.ADCompleteName, "Tag"), manuf},
				},
				{
					TS: seen1, AddrType: "random", RSSI: intPtr(-58), UpdateCount: 2,
					ScanData: []btscan.AdField{btscan.NewAdField(btscan.ADCompleteName, "Tag2")},
				},
				{TS: seen2},
			},
		},
	}
}

func TestText(t *testing.T) {
	want := classicHeader +
		"\n\nF4:5C:89:12:34:56\tPhone\t2021-04-21 10:00:00.000000\tAcme" +
		"\n\tSerial Port\tdescription undetected\tprovider undetected\tRFCOMM\thost undetected\t1" +
		"\n\tname undetected\tdescription undetected\tprovider undetected\tprotocol undetected\tF4:5C:89:12:34:56\tport undetected" +
		"\n\n00:11:22:33:44:55\t\t2021-04-21 10:00:00.000000\tunknown"

	assert.Equal(t, want, Text(classicFixture()))
}

func TestTextEmpty(t *testing.T) {
	assert.Equal(t, classicHeader, Text(nil))
	assert.Equal(t, leHeader, TextLE(nil))
	assert.True(t, strings.HasPrefix(Text(nil), "< BLUETOOTH CLASSIC >\n\n"))
	assert.True(t, strings.HasPrefix(TextLE(nil), "< BLUETOOTH LOW ENERGY >\n\n"))
}

func TestTextLE(t *testing.T) {
	want := leHeader +
		"\n\nAA:BB:CC:DD:EE:FF\t3 / 2\tAcme" +
		"\n\t2021-04-21 10:00:00.000000\trandom\tyes\t-60\t1\t4c001005" +
		"\n\t2021-04-21 10:00:01.500000\trandom\tconnectable undetected\t-58\t2\t" +
		"\n\t2021-04-21 10:00:03.000000"

	assert.Equal(t, want, TextLE(leFixture()))
}

func TestXMLClassic(t *testing.T) {
	out, err := XML(RootClassic, classicFixture())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<bluetooth>\r\n    <device>\r\n        <addr>F4:5C:89:12:34:56</addr>"), out)
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
	assert.NotContains(t, out, "<description>")

	var got struct {
		XMLName xml.Name
		Devices []struct {
			Addr     string `xml:"addr"`
			Name     string `xml:"name"`
			TS       string `xml:"ts"`
			Services []struct {
				Name     string `xml:"name"`
				Protocol string `xml:"protocol"`
				Host     string `xml:"host"`
				Port     string `xml:"port"`
			} `xml:"services>infos"`
		} `xml:"device"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &got))

	assert.Equal(t, RootClassic, got.XMLName.Local)
	require.Len(t, got.Devices, 2)
	assert.Equal(t, "2021-04-21 10:00:00.000000", got.Devices[0].TS)
	require.Len(t, got.Devices[0].Services, 2)
	assert.Equal(t, "Serial Port", got.Devices[0].Services[0].Name)
	assert.Equal(t, "RFCOMM", got.Devices[0].Services[0].Protocol)
	assert.Equal(t, "1", got.Devices[0].Services[0].Port)
	assert.Equal(t, "F4:5C:89:12:34:56", got.Devices[0].Services[1].Host)
	assert.Empty(t, got.Devices[1].Services)
}

func TestXMLLE(t *testing.T) {
	out, err := XMLLE(RootLE, leFixture())
	require.NoError(t, err)

	var got struct {
		XMLName xml.Name
		Devices []struct {
			Addr       string `xml:"addr"`
			Detections int    `xml:"detections"`
			Updates    int    `xml:"updates"`
			Data       []struct {
				TS          string `xml:"ts"`
				AddrType    string `xml:"addrType"`
				RSSI        string `xml:"rssi"`
				Connectable string `xml:"connectable"`
				ScanData    []struct {
					Info []string `xml:"info"`
				} `xml:"scanData>infos"`
			} `xml:"data>infos"`
		} `xml:"device"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &got))

	assert.Equal(t, RootLE, got.XMLName.Local)
	require.Len(t, got.Devices, 1)
	dev := got.Devices[0]
	assert.Equal(t, 3, dev.Detections)
	assert.Equal(t, 2, dev.Updates)
	require.Len(t, dev.Data, 3)

	assert.Equal(t, "random", dev.Data[0].AddrType)
	assert.Equal(t, "-60", dev.Data[0].RSSI)
	assert.Equal(t, "true", dev.Data[0].Connectable)
	require.Len(t, dev.Data[0].ScanData, 2)
	assert.Equal(t, []string{"9", "Complete Local Name", "Tag"}, dev.Data[0].ScanData[0].Info)
	assert.Equal(t, []string{"255", "Manufacturer", "4c001005"}, dev.Data[0].ScanData[1].Info)

	assert.Empty(t, dev.Data[1].Connectable)
	assert.Equal(t, "2021-04-21 10:00:03.000000", dev.Data[2].TS)
	assert.Empty(t, dev.Data[2].AddrType)
	assert.Empty(t, dev.Data[2].ScanData)
}

func TestJSON(t *testing.T) {
	out, err := JSON(Report{Classic: classicFixture(), LE: leFixture()})
	require.NoError(t, err)

	var got map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	require.Len(t, got[RootClassic], 2)
	require.Len(t, got[RootLE], 1)
	assert.Equal(t, "F4:5C:89:12:34:56", got[RootClassic][0]["addr"])
	assert.Equal(t, float64(3), got[RootLE][0]["detections"])

	data := got[RootLE][0]["data"].([]any)
	require.Len(t, data, 3)
	assert.Len(t, data[2].(map[string]any), 1, "timestamp-only observation carries only ts")
}

func TestJSONOmitsKindsThatDidNotRun(t *testing.T) {
	out, err := JSON(Report{LE: []btscan.LEDevice{}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"btle": []}`, out)
	assert.NotContains(t, out, "blle")
}
