//go:build !linux

package bluez

import (
	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

func adapterFor(id string) (*bluetooth.Adapter, error) {
	if id != "" && id != "hci0" {
		return nil, errors.Errorf("adapter %q: only the default adapter is available on this platform", id)
	}
	return bluetooth.DefaultAdapter, nil
}
