// Package tinygo scans for LE devices with tinygo.org/x/bluetooth. The library has no notion of
// bonded devices or classic discovery; names come from advertisements and scan responses.
package tinygo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

// DefaultDiscoveryWindow bounds a discovery pass.
const DefaultDiscoveryWindow = 12 * time.Second

var errDiscoveryRunning = errors.New("tinygo: discovery already running")

// scanner is the part of *bluetooth.Adapter used for discovery.
type scanner interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
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

// pass is a single call to Scan.
type pass struct {
	stopped   atomic.Bool
	cancelled atomic.Bool
	timer     *time.Timer
	finished  chan struct{}
}

// NewAdapter enables adapter id (the default adapter if empty).
func NewAdapter(id string, window time.Duration) (*Adapter, error) {
	device, err := newAdapter(id)
	if err != nil {
		return nil, err
	}
	a := newWithScanner(device, window)
	if err := device.Enable(); err != nil {
		if IsAdapterError(err) {
			return nil, fmt.Errorf("tinygo: %w: %s", platform.ErrAdapterUnavailable, err)
		}
		return nil, fmt.Errorf("tinygo: failed to enable adapter: %s", err)
	}
	return a, nil
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

// Enabled always returns true: NewAdapter fails if the adapter cannot be enabled.
func (a *Adapter) Enabled(ctx context.Context) (bool, error) {
	return true, ctx.Err()
}

func (a *Adapter) RequestEnable(_ context.Context) error {
	return a.device.Enable()
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
	p := &pass{finished: make(chan struct{})}
	p.timer = time.AfterFunc(a.window, func() { a.stop(p) })
	a.pass = p
	go a.run(p)
	return nil
}

func (a *Adapter) run(p *pass) {
	defer close(p.finished)
	a.hub.Publish(platform.Event{Kind: platform.EventDiscoveryStarted})

	log.Debug("Scanning for %s...", a.window)
	err := a.device.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		// Scan may begin after StopScan was called. Stop it again once it does.
		if p.stopped.Load() {
			a.stopScan()
			return
		}
		address := result.Address.String()
		name := result.LocalName()
		a.names.Observe(address, name)
		a.hub.Publish(platform.Event{
			Kind:   platform.EventDeviceFound,
			Device: platform.DeviceInfo{Address: address, Name: name},
		})
	})
	p.timer.Stop()

	a.lock.Lock()
	if a.pass == p {
		a.pass = nil
	}
	a.lock.Unlock()

	switch {
	case p.cancelled.Load():
		log.Debug("Scan cancelled")
	case err != nil && !p.stopped.Load():
		a.hub.Publish(platform.Event{Kind: platform.EventAdapterUnavailable, Err: err})
	default:
		a.hub.Publish(platform.Event{Kind: platform.EventDiscoveryFinished})
	}
}

func (a *Adapter) stop(p *pass) {
	if p.stopped.Swap(true) {
		return
	}
	a.stopScan()
}

func (a *Adapter) stopScan() {
	if err := a.device.StopScan(); err != nil {
		if strings.Contains(err.Error(), "no scan in progress") {
			return
		}
		log.Warning("tinygo: failed to stop scan: %s", err)
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

	p.timer.Stop()
	p.cancelled.Store(true)
	a.stop(p)
	select {
	case <-p.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.CancelDiscovery(ctx)
}
