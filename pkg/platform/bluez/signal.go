package bluez

import (
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/spacecrew/btscan/pkg/platform"
)

var (
	errPoweredOff      = errors.New("adapter powered off")
	errServiceVanished = errors.New("org.bluez left the bus")
)

// eventFromSignal translates a BlueZ signal concerning adapter into a platform event.
func eventFromSignal(adapter dbus.ObjectPath, sig *dbus.Signal) (platform.Event, bool) {
	switch sig.Name {
	case propertiesIface + ".PropertiesChanged":
		return propertiesChanged(adapter, sig)
	case objectManager + ".InterfacesAdded":
		return interfacesAdded(adapter, sig)
	case dbusInterface + ".NameOwnerChanged":
		if len(sig.Body) < 3 {
			return platform.Event{}, false
		}
		name, _ := sig.Body[0].(string)
		newOwner, _ := sig.Body[2].(string)
		if name == busName && newOwner == "" {
			return platform.Event{Kind: platform.EventAdapterUnavailable, Err: errServiceVanished}, true
		}
	}
	return platform.Event{}, false
}

func propertiesChanged(adapter dbus.ObjectPath, sig *dbus.Signal) (platform.Event, bool) {
	if len(sig.Body) < 2 {
		return platform.Event{}, false
	}
	iface, _ := sig.Body[0].(string)
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return platform.Event{}, false
	}

	switch {
	case sig.Path == adapter && iface == adapterInterface:
		if powered, ok := boolProperty(changed, "Powered"); ok && !powered {
			return platform.Event{Kind: platform.EventAdapterUnavailable, Err: errPoweredOff}, true
		}
		if discovering, ok := boolProperty(changed, "Discovering"); ok {
			if discovering {
				return platform.Event{Kind: platform.EventDiscoveryStarted}, true
			}
			return platform.Event{Kind: platform.EventDiscoveryFinished}, true
		}
	case iface == deviceInterface:
		// BlueZ only announces a device object once; devices it already knows about are
		// reported through RSSI updates when they are seen again.
		_, rssi := changed["RSSI"]
		_, name := changed["Name"]
		if !rssi && !name {
			return platform.Event{}, false
		}
		if info, ok := deviceInfo(adapter, sig.Path, changed); ok {
			return platform.Event{Kind: platform.EventDeviceFound, Device: info}, true
		}
	}
	return platform.Event{}, false
}

func interfacesAdded(adapter dbus.ObjectPath, sig *dbus.Signal) (platform.Event, bool) {
	if len(sig.Body) < 2 {
		return platform.Event{}, false
	}
	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return platform.Event{}, false
	}
	ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return platform.Event{}, false
	}
	props, ok := ifaces[deviceInterface]
	if !ok {
		return platform.Event{}, false
	}
	if info, ok := deviceInfo(adapter, path, props); ok {
		return platform.Event{Kind: platform.EventDeviceFound, Device: info}, true
	}
	return platform.Event{}, false
}

// cancelFilter drops the Discovering=false that follows a stop requested by CancelDiscovery.
// That stop belongs to the previous scan and must not finish the next one.
type cancelFilter struct {
	lock    sync.Mutex
	pending bool
}

// expect is called before StopDiscovery is sent, since the signal can be dispatched before the
// method reply arrives.
func (f *cancelFilter) expect() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pending = true
}

// clear is called when the stop failed and no signal will follow.
func (f *cancelFilter) clear() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pending = false
}

// allow reports whether e should be published.
func (f *cancelFilter) allow(e platform.Event) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	switch e.Kind {
	case platform.EventDiscoveryFinished:
		if f.pending {
			f.pending = false
			return false
		}
	case platform.EventDiscoveryStarted, platform.EventAdapterUnavailable:
		// Any Discovering=false for the canceled pass was delivered before this.
		f.pending = false
	}
	return true
}
