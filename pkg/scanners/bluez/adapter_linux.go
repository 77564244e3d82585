//go:build linux

package bluez

import "tinygo.org/x/bluetooth"

func adapterFor(id string) (*bluetooth.Adapter, error) {
	if id == "" {
		return bluetooth.DefaultAdapter, nil
	}
	return bluetooth.NewAdapter(id), nil
}
