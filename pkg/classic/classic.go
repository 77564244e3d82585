// Package classic performs Bluetooth Classic (BR/EDR) inquiries through the
// BlueZ D-Bus API.
//
// BlueZ does not expose a raw inquiry over D-Bus. Discovery is started with a
// BR/EDR transport filter, left running for the scan time and stopped; the
// devices that reported a signal strength during that window are the
// inquiry result.
package classic

import (
	"context"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mlsorensen/btscan"
)

const (
	bluezService       = "org.bluez"
	adapterIface       = "org.bluez.Adapter1"
	deviceIface        = "org.bluez.Device1"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
	propertiesIface    = "org.freedesktop.DBus.Properties"
	getManagedObjects  = objectManagerIface + ".GetManagedObjects"
	defaultAdapter     = "hci0"
	adapterPathBase    = "/org/bluez/"
)

// Result is what BlueZ reports for one device found during an inquiry.
type Result struct {
	Address string
	Name    string
	UUIDs   []string
	RSSI    *int16
	Class   *uint32
}

var _ btscan.Inquirer = (*Scanner)(nil)

// Scanner runs inquiries on one adapter.
type Scanner struct {
	adapterPath dbus.ObjectPath
	log         logrus.FieldLogger
}

// New returns a Scanner for the adapter named id ("hci0" when empty).
func New(id string, log logrus.FieldLogger) *Scanner {
	if id == "" {
		id = defaultAdapter
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scanner{
		adapterPath: dbus.ObjectPath(adapterPathBase + id),
		log:         log.WithField("adapter", id),
	}
}

// Discover runs one inquiry lasting duration, or until ctx is done.
func (s *Scanner) Discover(ctx context.Context, duration time.Duration) ([]Result, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect system bus")
	}
	defer conn.Close()

	for _, m := range []struct{ iface, member string }{
		{objectManagerIface, "InterfacesAdded"},
		{propertiesIface, "PropertiesChanged"},
	} {
		if err := conn.AddMatchSignal(dbus.WithMatchInterface(m.iface), dbus.WithMatchMember(m.member)); err != nil {
			s.log.Warnf("Warning: cannot watch %s.%s: %v", m.iface, m.member, err)
		}
	}
	signals := make(chan *dbus.Signal, 64)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	adapter := conn.Object(bluezService, s.adapterPath)
	root := conn.Object(bluezService, "/")
	return s.discover(ctx, adapter, root, signals, duration)
}

// discover runs the inquiry window. Devices are taken from the object tree
// before discovery stops, since BlueZ drops the RSSI of every device when it
// does. RSSI values announced on signals during the window fill in devices
// whose snapshot lacks one.
func (s *Scanner) discover(ctx context.Context, adapter, root dbus.BusObject, signals <-chan *dbus.Signal, duration time.Duration) ([]Result, error) {
	filter := map[string]dbus.Variant{"Transport": dbus.MakeVariant("bredr")}
	if err := adapter.CallWithContext(ctx, adapterIface+".SetDiscoveryFilter", 0, filter).Err; err != nil {
		return nil, errors.Wrap(err, "enable adapter")
	}

	s.log.Info("Starting Classic discovery...")
	if err := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0).Err; err != nil {
		return nil, errors.Wrap(err, "start discovery")
	}

	heard := s.listen(ctx, signals, duration)

	// The discovery must be stopped even when ctx is already done.
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	listErr := root.CallWithContext(stopCtx, getManagedObjects, 0).Store(&objects)

	s.log.Debug("Timeout reached. Stopping discovery...")
	if err := adapter.CallWithContext(stopCtx, adapterIface+".StopDiscovery", 0).Err; err != nil {
		s.log.Warnf("Warning: failed to stop discovery cleanly: %v", err)
	}

	if listErr != nil {
		return nil, errors.Wrap(listErr, "list devices")
	}
	return devicesFromObjects(objects, s.adapterPath, heard), nil
}

// listen collects the RSSI values announced for devices below the adapter
// until duration has passed or ctx is done.
func (s *Scanner) listen(ctx context.Context, signals <-chan *dbus.Signal, duration time.Duration) map[dbus.ObjectPath]int16 {
	heard := make(map[dbus.ObjectPath]int16)
	prefix := string(s.adapterPath) + "/"

	timer := time.NewTimer(duration)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return heard
		case <-ctx.Done():
			return heard
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			path, rssi, ok := rssiFromSignal(sig)
			if ok && strings.HasPrefix(string(path), prefix) {
				heard[path] = rssi
			}
		}
	}
}

// rssiFromSignal extracts a device RSSI from an InterfacesAdded or
// PropertiesChanged signal.
func rssiFromSignal(sig *dbus.Signal) (dbus.ObjectPath, int16, bool) {
	var rssi int16
	switch sig.Name {
	case objectManagerIface + ".InterfacesAdded":
		if len(sig.Body) < 2 {
			return "", 0, false
		}
		path, ok := sig.Body[0].(dbus.ObjectPath)
		if !ok {
			return "", 0, false
		}
		ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
		if !ok {
			return "", 0, false
		}
		return path, rssi, store(ifaces[deviceIface], "RSSI", &rssi)
	case propertiesIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return "", 0, false
		}
		if iface, _ := sig.Body[0].(string); iface != deviceIface {
			return "", 0, false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return "", 0, false
		}
		return sig.Path, rssi, store(changed, "RSSI", &rssi)
	}
	return "", 0, false
}

// Inquiry runs Discover and describes each device's advertised profiles as
// service records.
func (s *Scanner) Inquiry(ctx context.Context, duration time.Duration) ([]btscan.InquiryResult, error) {
	results, err := s.Discover(ctx, duration)
	if err != nil {
		return nil, err
	}
	out := make([]btscan.InquiryResult, 0, len(results))
	for _, r := range results {
		out = append(out, btscan.InquiryResult{
			Address:  r.Address,
			Name:     r.Name,
			Services: Services(r),
		})
	}
	return out, nil
}

// devicesFromObjects picks the devices below adapterPath that answered the
// inquiry. BlueZ also lists cached devices; only those with a current RSSI,
// from the object tree or from heard, and a class of device were heard over
// BR/EDR in this window.
func devicesFromObjects(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant, adapterPath dbus.ObjectPath, heard map[dbus.ObjectPath]int16) []Result {
	prefix := string(adapterPath) + "/"
	var out []Result
	for path, ifaces := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}

		var r Result
		if !store(props, "Address", &r.Address) {
			continue
		}
		var rssi int16
		if store(props, "RSSI", &rssi) {
			r.RSSI = &rssi
		} else if v, ok := heard[path]; ok {
			rssi = v
			r.RSSI = &rssi
		}
		var class uint32
		if store(props, "Class", &class) {
			r.Class = &class
		}
		if r.RSSI == nil || r.Class == nil {
			continue
		}
		store(props, "Name", &r.Name)
		store(props, "UUIDs", &r.UUIDs)

		r.Address = strings.ToUpper(r.Address)
		out = append(out, r)
	}
	sortResults(out)
	return out
}

func store(props map[string]dbus.Variant, key string, dst interface{}) bool {
	v, ok := props[key]
	if !ok {
		return false
	}
	return v.Store(dst) == nil
}
