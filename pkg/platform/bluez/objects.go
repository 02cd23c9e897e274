package bluez

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/spacecrew/btscan/pkg/platform"
)

const (
	busName           = "org.bluez"
	adapterInterface  = "org.bluez.Adapter1"
	deviceInterface   = "org.bluez.Device1"
	objectManager     = "org.freedesktop.DBus.ObjectManager"
	propertiesIface   = "org.freedesktop.DBus.Properties"
	introspectable    = "org.freedesktop.DBus.Introspectable"
	dbusInterface     = "org.freedesktop.DBus"
	defaultAdapterID  = "hci0"
	devicePathElement = "dev_"
)

// D-Bus error names that change how a call failure is reported.
const (
	errServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
	errNameHasNoOwner = "org.freedesktop.DBus.Error.NameHasNoOwner"
	errAccessDenied   = "org.freedesktop.DBus.Error.AccessDenied"
	errUnknownObject  = "org.freedesktop.DBus.Error.UnknownObject"
	errInvalidArgs    = "org.freedesktop.DBus.Error.InvalidArgs"
	errNotAuthorized  = "org.bluez.Error.NotAuthorized"
	errFailed         = "org.bluez.Error.Failed"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

func adapterPath(id string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + id)
}

// devicePath converts an address to a BlueZ object path.
// Example: "AA:BB:CC:DD:EE:FF" → "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"
func devicePath(adapter dbus.ObjectPath, address string) dbus.ObjectPath {
	devAddr := strings.ReplaceAll(strings.ToUpper(address), ":", "_")
	return dbus.ObjectPath(fmt.Sprintf("%s/%s%s", adapter, devicePathElement, devAddr))
}

// addressFromPath is the inverse of devicePath. It returns false for paths that do not name a
// device of adapter, including the GATT objects nested below a device.
func addressFromPath(adapter, path dbus.ObjectPath) (string, bool) {
	prefix := string(adapter) + "/" + devicePathElement
	if !strings.HasPrefix(string(path), prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(string(path), prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return strings.ReplaceAll(rest, "_", ":"), true
}

func stringProperty(props map[string]dbus.Variant, name string) string {
	if v, ok := props[name]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func boolProperty(props map[string]dbus.Variant, name string) (value, ok bool) {
	if v, found := props[name]; found {
		value, ok = v.Value().(bool)
	}
	return
}

func deviceInfo(adapter, path dbus.ObjectPath, props map[string]dbus.Variant) (platform.DeviceInfo, bool) {
	address, ok := addressFromPath(adapter, path)
	if !ok {
		return platform.DeviceInfo{}, false
	}
	if a := stringProperty(props, "Address"); a != "" {
		address = a
	}
	// Alias falls back to the address when a device has no name, so only Name is used.
	return platform.DeviceInfo{Address: address, Name: stringProperty(props, "Name")}, true
}

// pairedDevices extracts the devices of adapter that are paired, ordered by object path.
func pairedDevices(adapter dbus.ObjectPath, objects managedObjects) []platform.DeviceInfo {
	var paths []dbus.ObjectPath
	for path, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok {
			continue
		}
		if paired, _ := boolProperty(props, "Paired"); !paired {
			continue
		}
		if _, ok := addressFromPath(adapter, path); ok {
			paths = append(paths, path)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	devices := make([]platform.DeviceInfo, 0, len(paths))
	for _, path := range paths {
		info, _ := deviceInfo(adapter, path, objects[path][deviceInterface])
		devices = append(devices, info)
	}
	return devices
}

func errorName(err error) string {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name
	}
	var pointer *dbus.Error
	if errors.As(err, &pointer) {
		return pointer.Name
	}
	return ""
}

// translateError maps D-Bus failures onto platform errors so callers can tell a missing service
// from a refused request.
func translateError(action string, err error) error {
	if err == nil {
		return nil
	}
	switch errorName(err) {
	case errServiceUnknown, errNameHasNoOwner:
		return fmt.Errorf("bluez: failed to %s: %w (%s)", action, platform.ErrAdapterUnavailable, err)
	case errAccessDenied, errNotAuthorized:
		return fmt.Errorf("bluez: failed to %s: %w (%s)", action, platform.ErrPermissionDenied, err)
	case errUnknownObject:
		return fmt.Errorf("bluez: failed to %s: %w (%s)", action, platform.ErrAdapterInvalidID, err)
	}
	return fmt.Errorf("bluez: failed to %s: %w", action, err)
}
