package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/spacecrew/btscan/pkg/platform"
)

func propertiesSignal(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Path: path,
		Name: propertiesIface + ".PropertiesChanged",
		Body: []interface{}{iface, changed, []string{}},
	}
}

func TestAdapterSignals(t *testing.T) {
	cases := []struct {
		changed  map[string]dbus.Variant
		expected platform.EventKind
	}{
		{map[string]dbus.Variant{"Discovering": dbus.MakeVariant(true)}, platform.EventDiscoveryStarted},
		{map[string]dbus.Variant{"Discovering": dbus.MakeVariant(false)}, platform.EventDiscoveryFinished},
		{map[string]dbus.Variant{"Powered": dbus.MakeVariant(false)}, platform.EventAdapterUnavailable},
		{
			map[string]dbus.Variant{"Powered": dbus.MakeVariant(false), "Discovering": dbus.MakeVariant(false)},
			platform.EventAdapterUnavailable,
		},
	}
	for _, c := range cases {
		e, ok := eventFromSignal(testAdapter, propertiesSignal(testAdapter, adapterInterface, c.changed))
		if !ok {
			t.Errorf("%v: no event", c.changed)
			continue
		}
		if e.Kind != c.expected {
			t.Errorf("%v: expected %s but got %s", c.changed, c.expected, e.Kind)
		}
	}

	powered := map[string]dbus.Variant{"Powered": dbus.MakeVariant(true)}
	if e, ok := eventFromSignal(testAdapter, propertiesSignal(testAdapter, adapterInterface, powered)); ok {
		t.Errorf("power on produced %s", e)
	}
	other := dbus.ObjectPath("/org/bluez/hci1")
	discovering := map[string]dbus.Variant{"Discovering": dbus.MakeVariant(true)}
	if e, ok := eventFromSignal(testAdapter, propertiesSignal(other, adapterInterface, discovering)); ok {
		t.Errorf("other adapter produced %s", e)
	}
}

func TestDeviceSignals(t *testing.T) {
	path := devicePath(testAdapter, "AA:BB:CC:DD:EE:FF")

	added := &dbus.Signal{
		Path: "/",
		Name: objectManager + ".InterfacesAdded",
		Body: []interface{}{path, map[string]map[string]dbus.Variant{
			deviceInterface: {
				"Address": dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
				"Name":    dbus.MakeVariant("Headset"),
			},
		}},
	}
	e, ok := eventFromSignal(testAdapter, added)
	if !ok || e.Kind != platform.EventDeviceFound {
		t.Fatalf("InterfacesAdded gave %s, %v", e, ok)
	}
	if e.Device.Address != "AA:BB:CC:DD:EE:FF" || e.Device.Name != "Headset" {
		t.Errorf("unexpected device %+v", e.Device)
	}

	rssi := propertiesSignal(path, deviceInterface, map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-60))})
	e, ok = eventFromSignal(testAdapter, rssi)
	if !ok || e.Kind != platform.EventDeviceFound || e.Device.Address != "AA:BB:CC:DD:EE:FF" || e.Device.Name != "" {
		t.Errorf("RSSI update gave %s, %v", e, ok)
	}

	connected := propertiesSignal(path, deviceInterface, map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)})
	if e, ok := eventFromSignal(testAdapter, connected); ok {
		t.Errorf("Connected update produced %s", e)
	}

	service := &dbus.Signal{
		Path: "/",
		Name: objectManager + ".InterfacesAdded",
		Body: []interface{}{path + "/service0010", map[string]map[string]dbus.Variant{
			"org.bluez.GattService1": {},
		}},
	}
	if e, ok := eventFromSignal(testAdapter, service); ok {
		t.Errorf("GATT service produced %s", e)
	}
}

func TestServiceVanished(t *testing.T) {
	sig := &dbus.Signal{
		Path: "/org/freedesktop/DBus",
		Name: dbusInterface + ".NameOwnerChanged",
		Body: []interface{}{busName, ":1.7", ""},
	}
	e, ok := eventFromSignal(testAdapter, sig)
	if !ok || e.Kind != platform.EventAdapterUnavailable {
		t.Fatalf("expected adapter-unavailable but got %s, %v", e, ok)
	}

	sig.Body = []interface{}{busName, "", ":1.8"}
	if e, ok := eventFromSignal(testAdapter, sig); ok {
		t.Errorf("service start produced %s", e)
	}
}

func TestCanceledDiscoveryDoesNotFinishNextScan(t *testing.T) {
	started := platform.Event{Kind: platform.EventDiscoveryStarted}
	finished := platform.Event{Kind: platform.EventDiscoveryFinished}
	var f cancelFilter

	if !f.allow(finished) {
		t.Fatal("finished dropped without a cancel")
	}

	f.expect()
	if f.allow(finished) {
		t.Error("finished from the canceled pass was published")
	}
	if !f.allow(started) || !f.allow(finished) {
		t.Error("events of the next pass were dropped")
	}

	// BlueZ keeps discovering for other clients, so no Discovering=false follows the stop.
	f.expect()
	if !f.allow(started) {
		t.Error("started dropped")
	}
	if !f.allow(finished) {
		t.Error("finished of the next pass dropped after a stop without a signal")
	}

	f.expect()
	f.clear()
	if !f.allow(finished) {
		t.Error("finished dropped after a failed stop")
	}
}
