package hci

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-ble/ble"

	"github.com/mlsorensen/btscan"
)

// rawAdvertisement is implemented by advertisements that keep the packets
// they were decoded from.
type rawAdvertisement interface {
	Data() []byte
	ScanResponse() []byte
}

type addressTyper interface {
	AddressType() uint8
}

func sightingFromAdvertisement(a ble.Advertisement, at time.Time) btscan.Sighting {
	connectable := a.Connectable()
	sg := btscan.Sighting{
		Address:     strings.ToUpper(a.Addr().String()),
		RSSI:        a.RSSI(),
		Connectable: &connectable,
		Time:        at,
	}
	if t, ok := a.(addressTyper); ok {
		sg.AddressType = "public"
		if t.AddressType() == 1 {
			sg.AddressType = "random"
		}
	}

	if raw, ok := a.(rawAdvertisement); ok && len(raw.Data())+len(raw.ScanResponse()) > 0 {
		payload := append(append([]byte(nil), raw.Data()...), raw.ScanResponse()...)
		sg.Fields = btscan.ParseAdvertisement(payload)
		return sg
	}
	sg.Fields = decodedFields(a)
	return sg
}

func decodedFields(a ble.Advertisement) []btscan.AdField {
	var fields []btscan.AdField
	if name := a.LocalName(); name != "" {
		fields = append(fields, btscan.NewAdField(btscan.ADCompleteName, name))
	}
	// Zero doubles as "not advertised".
	if tx := a.TxPowerLevel(); tx != 0 {
		fields = append(fields, btscan.NewAdField(btscan.ADTxPower, strconv.Itoa(tx)))
	}
	if svcs := a.Services(); len(svcs) > 0 {
		uuids := make([]string, 0, len(svcs))
		for _, u := range svcs {
			uuids = append(uuids, btscan.FormatUUID(u))
		}
		fields = append(fields, btscan.NewAdField(btscan.ADAllUUID128, strings.Join(uuids, ",")))
	}
	for _, sd := range a.ServiceData() {
		fields = append(fields, btscan.NewAdField(btscan.ADServiceData128, btscan.FormatUUID(sd.UUID)+":"+hex.EncodeToString(sd.Data)))
	}
	if md := a.ManufacturerData(); len(md) > 0 {
		fields = append(fields, btscan.NewAdField(btscan.ADManufacturerData, hex.EncodeToString(md)))
	}
	btscan.SortFields(fields)
	return fields
}
