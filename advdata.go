package btscan

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Advertising data types. Refer to Supplement to Bluetooth Core Specification | CSSv6, Part A.
const (
	ADFlags            uint8 = 0x01
	ADSomeUUID16       uint8 = 0x02
	ADAllUUID16        uint8 = 0x03
	ADSomeUUID32       uint8 = 0x04
	ADAllUUID32        uint8 = 0x05
	ADSomeUUID128      uint8 = 0x06
	ADAllUUID128       uint8 = 0x07
	ADShortName        uint8 = 0x08
	ADCompleteName     uint8 = 0x09
	ADTxPower          uint8 = 0x0A
	ADServiceSol16     uint8 = 0x14
	ADServiceSol128    uint8 = 0x15
	ADServiceData16    uint8 = 0x16
	ADAppearance       uint8 = 0x19
	ADServiceSol32     uint8 = 0x1F
	ADServiceData32    uint8 = 0x20
	ADServiceData128   uint8 = 0x21
	ADManufacturerData uint8 = 0xFF
)

var adDescriptions = map[uint8]string{
	ADFlags:            "Flags",
	ADSomeUUID16:       "Incomplete 16b Services",
	ADAllUUID16:        "Complete 16b Services",
	ADSomeUUID32:       "Incomplete 32b Services",
	ADAllUUID32:        "Complete 32b Services",
	ADSomeUUID128:      "Incomplete 128b Services",
	ADAllUUID128:       "Complete 128b Services",
	ADShortName:        "Short Local Name",
	ADCompleteName:     "Complete Local Name",
	ADTxPower:          "Tx Power",
	ADServiceSol16:     "16b Service Solicitation",
	ADServiceSol128:    "128b Service Solicitation",
	ADServiceData16:    "16b Service Data",
	ADAppearance:       "Appearance",
	ADServiceSol32:     "32b Service Solicitation",
	ADServiceData32:    "32b Service Data",
	ADServiceData128:   "128b Service Data",
	ADManufacturerData: "Manufacturer",
}

// AdField is one decoded advertising data structure.
type AdField struct {
	Type        uint8  `json:"type"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// DescribeADType returns the human readable name of an advertising data type.
func DescribeADType(t uint8) string {
	if d, ok := adDescriptions[t]; ok {
		return d
	}
	return fmt.Sprintf("0x%02x", t)
}

// NewAdField builds a field of type t with its standard description.
func NewAdField(t uint8, value string) AdField {
	return AdField{Type: t, Description: DescribeADType(t), Value: value}
}

// ManufacturerField encodes manufacturer specific data the way it appears on
// the air: the company identifier little-endian, followed by the payload.
func ManufacturerField(companyID uint16, data []byte) AdField {
	b := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(b, companyID)
	return NewAdField(ADManufacturerData, hex.EncodeToString(append(b, data...)))
}

// ParseAdvertisement decodes a raw advertising payload into its fields.
// Decoding stops at the first malformed structure; everything before it is
// returned.
func ParseAdvertisement(raw []byte) []AdField {
	var fields []AdField
	b := raw
	for len(b) > 0 {
		l := int(b[0])
		if l == 0 {
			// Zero length marks the end of significant data.
			break
		}
		if len(b) < 1+l {
			break
		}
		t, v := b[1], b[2:1+l]
		fields = append(fields, NewAdField(t, decodeADValue(t, v)))
		b = b[1+l:]
	}
	SortFields(fields)
	return fields
}

// SortFields orders fields by type, keeping the relative order of equal types.
func SortFields(fields []AdField) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Type < fields[j].Type
	})
}

func decodeADValue(t uint8, v []byte) string {
	switch t {
	case ADShortName, ADCompleteName:
		return string(v)
	case ADTxPower:
		if len(v) == 1 {
			return strconv.Itoa(int(int8(v[0])))
		}
	case ADSomeUUID16, ADAllUUID16, ADServiceSol16:
		return uuidList(v, 2)
	case ADSomeUUID32, ADAllUUID32, ADServiceSol32:
		return uuidList(v, 4)
	case ADSomeUUID128, ADAllUUID128, ADServiceSol128:
		return uuidList(v, 16)
	}
	return hex.EncodeToString(v)
}

// uuidList renders a packed little-endian UUID list as comma separated
// big-endian strings.
func uuidList(b []byte, size int) string {
	var out []string
	for len(b) >= size {
		out = append(out, FormatUUID(b[:size]))
		b = b[size:]
	}
	return strings.Join(out, ",")
}

// FormatUUID renders a little-endian UUID of 2, 4 or 16 bytes. 16 and 32 bit
// UUIDs are expanded onto the Bluetooth base UUID.
func FormatUUID(le []byte) string {
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}
	switch len(be) {
	case 2:
		return fmt.Sprintf("0000%04x-0000-1000-8000-00805f9b34fb", binary.BigEndian.Uint16(be))
	case 4:
		return fmt.Sprintf("%08x-0000-1000-8000-00805f9b34fb", binary.BigEndian.Uint32(be))
	case 16:
		return fmt.Sprintf("%x-%x-%x-%x-%x", be[0:4], be[4:6], be[6:8], be[8:10], be[10:16])
	}
	return hex.EncodeToString(be)
}
