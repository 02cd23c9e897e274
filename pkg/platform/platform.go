// Package platform defines what the discovery core needs from the host's Bluetooth stack.
//
// Backends live in sub-packages: [bluez] talks to BlueZ over the system D-Bus, [tinygo] and
// [goble] drive an LE scan through their respective libraries. The discovery core only sees the
// interfaces in this package, so a backend never leaks a live device handle into the data model:
// devices are identified by address and names are fetched by address through a [NameAccessor].
package platform

//go:generate mockgen -destination=../../mocks/platform.go -package=mocks -mock_names=Adapter=Adapter,NameAccessor=NameAccessor,Permissions=Permissions,Subscription=Subscription github.com/spacecrew/btscan/pkg/platform Adapter,NameAccessor,Permissions,Subscription

import (
	"context"
	"fmt"
)

// DeviceInfo describes a device as reported by the platform. Name is empty when the platform
// has not resolved it yet.
type DeviceInfo struct {
	Address string
	Name    string
}

type EventKind int

const (
	EventDiscoveryStarted EventKind = iota
	EventDeviceFound
	EventDiscoveryFinished
	EventAdapterUnavailable // The adapter was powered off or the Bluetooth service went away.
	EventPermissionRevoked  // Access to the adapter was withdrawn while in use.
)

var eventNames = map[EventKind]string{
	EventDiscoveryStarted:   "discovery-started",
	EventDeviceFound:        "device-found",
	EventDiscoveryFinished:  "discovery-finished",
	EventAdapterUnavailable: "adapter-unavailable",
	EventPermissionRevoked:  "permission-revoked",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered asynchronously to subscribers. Device is only populated for
// EventDeviceFound; Err may carry backend detail for the adapter and permission events.
type Event struct {
	Kind   EventKind
	Device DeviceInfo
	Err    error
}

func (e Event) String() string {
	if e.Kind == EventDeviceFound {
		return fmt.Sprintf("%s %s %q", e.Kind, e.Device.Address, e.Device.Name)
	}
	return e.Kind.String()
}

// Subscription is returned by [Adapter.Subscribe]. Unsubscribe is safe to call more than once;
// no events are delivered after it returns.
type Subscription interface {
	Unsubscribe()
}

// Adapter is the local Bluetooth controller.
type Adapter interface {
	// Enabled reports whether the adapter is powered.
	Enabled(ctx context.Context) (bool, error)
	// RequestEnable asks the platform to power the adapter on.
	RequestEnable(ctx context.Context) error
	// BondedDevices enumerates devices already paired with this host.
	BondedDevices(ctx context.Context) ([]DeviceInfo, error)
	// CancelDiscovery stops a discovery pass if one is running. It is not an error to cancel
	// when nothing is running.
	CancelDiscovery(ctx context.Context) error
	// StartDiscovery begins a discovery pass bounded in time by the backend. Progress is
	// reported through events.
	StartDiscovery(ctx context.Context) error
	// Subscribe registers handler for adapter events. Handlers run on a backend goroutine and
	// must not block for long.
	Subscribe(handler func(Event)) (Subscription, error)
	Close() error
}

// NameAccessor returns the currently known name of a device, or an empty string if the
// platform has not resolved it yet.
type NameAccessor interface {
	DeviceName(ctx context.Context, address string) (string, error)
}

// Permissions answers whether this process may scan for and connect to devices.
type Permissions interface {
	Granted(ctx context.Context) (bool, error)
	// Request asks for the permissions and returns whether they were granted.
	Request(ctx context.Context) (bool, error)
}

// AlwaysGranted is used by backends whose platform enforces access when the adapter is opened,
// leaving nothing to check afterwards.
type AlwaysGranted struct{}

func (AlwaysGranted) Granted(context.Context) (bool, error) { return true, nil }
func (AlwaysGranted) Request(context.Context) (bool, error) { return true, nil }
