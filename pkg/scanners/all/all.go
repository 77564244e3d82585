// Package all is a convenience wrapper that registers every BLE backend
// available on the current platform. Importing this package lets
// btscan.NewScanner find any of them by name.
package all

// Import each backend package for its side-effects (the init() function).
import (
	_ "github.com/mlsorensen/btscan/pkg/scanners/bluez"
	_ "github.com/mlsorensen/btscan/pkg/scanners/hci"
	_ "github.com/mlsorensen/btscan/pkg/scanners/mock"
)
