// Package hci is a BLE backend that opens the host controller's raw HCI
// socket through github.com/go-ble/ble. Unlike the bluez backend it reports
// whether each advertisement was connectable. It needs CAP_NET_ADMIN (or
// root) and is only available on Linux.
//
//	import _ "github.com/mlsorensen/btscan/pkg/scanners/hci"
package hci

// Name is the backend name passed to btscan.NewScanner.
const Name = "hci"
