// Package bluez implements the platform interfaces on top of the BlueZ daemon, reached over the
// system D-Bus. It supports classic and LE discovery, lists paired devices, and reads device names
// as BlueZ learns them.
package bluez

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

// DefaultDiscoveryWindow bounds a discovery pass. BlueZ keeps discovering until told to stop.
const DefaultDiscoveryWindow = 12 * time.Second

// Adapter is a BlueZ adapter such as hci0. It implements [platform.Adapter] and
// [platform.NameAccessor].
type Adapter struct {
	conn   *dbus.Conn
	path   dbus.ObjectPath
	window time.Duration
	hub    *platform.Hub

	signals chan *dbus.Signal
	matches [][]dbus.MatchOption
	stop    chan struct{}
	done    chan struct{}

	canceled cancelFilter

	lock      sync.Mutex
	stopTimer *time.Timer
	closed    bool
}

// Open connects to the system bus and selects adapter id ("hci0" if empty). Discovery passes
// started through the returned Adapter stop after window (DefaultDiscoveryWindow if zero).
func Open(ctx context.Context, id string, window time.Duration) (*Adapter, error) {
	if id == "" {
		id = defaultAdapterID
	}
	if window <= 0 {
		window = DefaultDiscoveryWindow
	}

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bluez: %w: %s", platform.ErrAdapterUnavailable, err)
	}

	a := &Adapter{
		conn:    conn,
		path:    adapterPath(id),
		window:  window,
		hub:     platform.NewHub(),
		signals: make(chan *dbus.Signal, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	// Fail early on a missing service or adapter. Access errors are left for Permissions to
	// report so the frontend can ask the user to fix them.
	if _, err := a.object().GetProperty(adapterInterface + ".Address"); err != nil {
		if name := errorName(err); name != errAccessDenied && name != errNotAuthorized {
			conn.Close()
			return nil, translateError("open adapter "+id, err)
		}
	}

	a.matches = [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(busName),
			dbus.WithMatchInterface(objectManager),
			dbus.WithMatchMember("InterfacesAdded"),
		},
		{
			dbus.WithMatchSender(busName),
			dbus.WithMatchInterface(propertiesIface),
			dbus.WithMatchMember("PropertiesChanged"),
			dbus.WithMatchPathNamespace(a.path),
		},
		{
			dbus.WithMatchInterface(dbusInterface),
			dbus.WithMatchMember("NameOwnerChanged"),
			dbus.WithMatchArg(0, busName),
		},
	}
	for _, match := range a.matches {
		if err := conn.AddMatchSignal(match...); err != nil {
			conn.Close()
			return nil, translateError("subscribe to signals", err)
		}
	}
	conn.Signal(a.signals)
	go a.dispatch()

	log.Debug("Opened BlueZ adapter %s", a.path)
	return a, nil
}

func (a *Adapter) object() dbus.BusObject {
	return a.conn.Object(busName, a.path)
}

func (a *Adapter) dispatch() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case sig, ok := <-a.signals:
			if !ok {
				return
			}
			if e, ok := eventFromSignal(a.path, sig); ok && a.canceled.allow(e) {
				a.hub.Publish(e)
			}
		}
	}
}

func (a *Adapter) Enabled(ctx context.Context) (bool, error) {
	var powered bool
	err := a.object().CallWithContext(ctx, propertiesIface+".Get", 0, adapterInterface, "Powered").Store(&powered)
	if err != nil {
		return false, translateError("read adapter state", err)
	}
	return powered, nil
}

func (a *Adapter) RequestEnable(ctx context.Context) error {
	call := a.object().CallWithContext(ctx, propertiesIface+".Set", 0, adapterInterface, "Powered", dbus.MakeVariant(true))
	return translateError("power on adapter", call.Err)
}

func (a *Adapter) BondedDevices(ctx context.Context) ([]platform.DeviceInfo, error) {
	var objects managedObjects
	err := a.conn.Object(busName, "/").CallWithContext(ctx, objectManager+".GetManagedObjects", 0).Store(&objects)
	if err != nil {
		return nil, translateError("list devices", err)
	}
	return pairedDevices(a.path, objects), nil
}

func (a *Adapter) CancelDiscovery(ctx context.Context) error {
	a.lock.Lock()
	if a.stopTimer != nil {
		a.stopTimer.Stop()
		a.stopTimer = nil
	}
	a.lock.Unlock()

	a.canceled.expect()
	call := a.object().CallWithContext(ctx, adapterInterface+".StopDiscovery", 0)
	if call.Err != nil {
		a.canceled.clear()
	}
	if errorName(call.Err) == errFailed {
		// "No discovery started"
		return nil
	}
	return translateError("stop discovery", call.Err)
}

func (a *Adapter) StartDiscovery(ctx context.Context) error {
	call := a.object().CallWithContext(ctx, adapterInterface+".StartDiscovery", 0)
	if call.Err != nil {
		return translateError("start discovery", call.Err)
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	if a.stopTimer != nil {
		a.stopTimer.Stop()
	}
	a.stopTimer = time.AfterFunc(a.window, a.endDiscovery)
	log.Debug("Discovering on %s for %s", a.path, a.window)
	return nil
}

// endDiscovery runs when the discovery window elapses. BlueZ reports the end of discovery through
// the Discovering property.
func (a *Adapter) endDiscovery() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	call := a.object().CallWithContext(ctx, adapterInterface+".StopDiscovery", 0)
	switch name := errorName(call.Err); {
	case call.Err == nil, name == errFailed:
	case name == errAccessDenied, name == errNotAuthorized:
		a.hub.Publish(platform.Event{Kind: platform.EventPermissionRevoked, Err: call.Err})
	default:
		log.Warning("bluez: failed to stop discovery: %s", call.Err)
	}
}

func (a *Adapter) Subscribe(handler func(platform.Event)) (platform.Subscription, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.closed {
		return nil, errors.New("bluez: adapter closed")
	}
	return a.hub.Subscribe(handler), nil
}

// DeviceName returns the name BlueZ currently knows for address.
func (a *Adapter) DeviceName(ctx context.Context, address string) (string, error) {
	var name string
	err := a.conn.Object(busName, devicePath(a.path, address)).
		CallWithContext(ctx, propertiesIface+".Get", 0, deviceInterface, "Name").
		Store(&name)
	switch errorName(err) {
	case "":
	case errInvalidArgs, errUnknownObject:
		// No Name property yet, or the device was removed.
		return "", nil
	default:
		return "", translateError("read device name", err)
	}
	if err != nil {
		return "", fmt.Errorf("bluez: failed to read device name: %w", err)
	}
	return name, nil
}

// Permissions returns the permission authority for this adapter.
func (a *Adapter) Permissions() *Permissions {
	return &Permissions{conn: a.conn, path: a.path}
}

// Close stops discovery started through a, unregisters signal matches and closes the bus
// connection.
func (a *Adapter) Close() error {
	a.lock.Lock()
	if a.closed {
		a.lock.Unlock()
		return nil
	}
	a.closed = true
	if a.stopTimer != nil {
		a.stopTimer.Stop()
		a.stopTimer = nil
	}
	a.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.CancelDiscovery(ctx); err != nil {
		log.Debug("bluez: %s", err)
	}

	close(a.stop)
	<-a.done
	a.conn.RemoveSignal(a.signals)
	for _, match := range a.matches {
		if err := a.conn.RemoveMatchSignal(match...); err != nil {
			log.Debug("bluez: failed to remove signal match: %s", err)
		}
	}
	return a.conn.Close()
}
