// Package goble scans for LE devices with github.com/go-ble/ble. On Linux it opens the HCI socket
// directly and so needs CAP_NET_ADMIN but no running BlueZ daemon.
package goble

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ble/ble"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

// DefaultDiscoveryWindow bounds a discovery pass.
const DefaultDiscoveryWindow = 12 * time.Second

var errDiscoveryRunning = errors.New("goble: discovery already running")

// scanner is the part of ble.Device used for discovery.
type scanner interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Stop() error
}

// Adapter implements [platform.Adapter] and [platform.NameAccessor].
type Adapter struct {
	device scanner
	window time.Duration
	hub    *platform.Hub
	names  *platform.NameTable

	lock sync.Mutex
	pass *pass
}

type pass struct {
	cancel    context.CancelFunc
	cancelled atomic.Bool
	finished  chan struct{}
}

// NewAdapter opens HCI device id, such as "hci0". An empty id selects the first device.
func NewAdapter(id string, window time.Duration) (*Adapter, error) {
	device, err := newDevice(id)
	if err != nil {
		return nil, err
	}
	return newWithScanner(device, window), nil
}

func newWithScanner(device scanner, window time.Duration) *Adapter {
	if window <= 0 {
		window = DefaultDiscoveryWindow
	}
	return &Adapter{
		device: device,
		window: window,
		hub:    platform.NewHub(),
		names:  platform.NewNameTable(),
	}
}

// Enabled always returns true. The HCI device cannot be opened while it is down.
func (a *Adapter) Enabled(ctx context.Context) (bool, error) {
	return true, ctx.Err()
}

func (a *Adapter) RequestEnable(_ context.Context) error {
	return platform.ErrNotSupported
}

func (a *Adapter) BondedDevices(ctx context.Context) ([]platform.DeviceInfo, error) {
	return nil, ctx.Err()
}

func (a *Adapter) Subscribe(handler func(platform.Event)) (platform.Subscription, error) {
	return a.hub.Subscribe(handler), nil
}

func (a *Adapter) DeviceName(ctx context.Context, address string) (string, error) {
	return a.names.DeviceName(ctx, address)
}

func (a *Adapter) StartDiscovery(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	if a.pass != nil {
		return errDiscoveryRunning
	}
	scanCtx, cancel := context.WithTimeout(context.Background(), a.window)
	p := &pass{cancel: cancel, finished: make(chan struct{})}
	a.pass = p
	go a.run(scanCtx, p)
	return nil
}

func (a *Adapter) run(ctx context.Context, p *pass) {
	defer close(p.finished)
	defer p.cancel()
	a.hub.Publish(platform.Event{Kind: platform.EventDiscoveryStarted})

	// Duplicates are allowed so that scan responses carrying a name are seen, but a device is
	// only reported again when its name changes.
	seen := make(map[string]string)
	handler := func(adv ble.Advertisement) {
		if ctx.Err() != nil {
			return
		}
		address := strings.ToUpper(adv.Addr().String())
		name := adv.LocalName()
		if previous, ok := seen[address]; ok && (name == "" || name == previous) {
			return
		}
		seen[address] = name
		a.names.Observe(address, name)
		a.hub.Publish(platform.Event{
			Kind:   platform.EventDeviceFound,
			Device: platform.DeviceInfo{Address: address, Name: name},
		})
	}

	log.Debug("Scanning for %s...", a.window)
	err := a.device.Scan(ctx, true, handler)

	a.lock.Lock()
	if a.pass == p {
		a.pass = nil
	}
	a.lock.Unlock()

	switch {
	case p.cancelled.Load():
		log.Debug("Scan cancelled")
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		a.hub.Publish(platform.Event{Kind: platform.EventDiscoveryFinished})
	default:
		a.hub.Publish(platform.Event{Kind: platform.EventAdapterUnavailable, Err: err})
	}
}

// CancelDiscovery stops the current pass without reporting it as finished and waits for the scan
// to return.
func (a *Adapter) CancelDiscovery(ctx context.Context) error {
	a.lock.Lock()
	p := a.pass
	a.pass = nil
	a.lock.Unlock()
	if p == nil {
		return nil
	}

	p.cancelled.Store(true)
	p.cancel()
	select {
	case <-p.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops any discovery pass and releases the device.
func (a *Adapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.CancelDiscovery(ctx); err != nil {
		log.Warning("goble: failed to cancel discovery: %s", err)
	}
	if err := a.device.Stop(); err != nil {
		return errors.New("goble: failed to stop device: " + err.Error())
	}
	log.Debug("Closed BLE adapter")
	return nil
}
