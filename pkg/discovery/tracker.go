package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/cache"
	"github.com/spacecrew/btscan/pkg/platform"
)

// ErrClosed is returned by methods of a Tracker after Close.
var ErrClosed = errors.New("discovery: tracker closed")

// Tracker owns the current scan session and mediates between the platform and whatever renders
// the device list.
//
// All session state is owned by a single goroutine started by New. Platform events and name
// resolution results are handed to that goroutine rather than applied in place, so readers always
// observe a consistent session.
type Tracker struct {
	adapter  platform.Adapter
	perms    platform.Permissions
	resolver *Resolver
	names    *cache.NameCache

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	sub       platform.Subscription
	baseCtx   context.Context
	cancelAll context.CancelFunc
	resolvers sync.WaitGroup

	// Owned by the loop goroutine.
	session  *session
	watchers map[int]chan Snapshot
	nextID   int
}

type session struct {
	generation uint64
	state      State
	devices    []DeviceRecord
	index      map[string]int
	pending    map[string]context.CancelFunc
	ctx        context.Context
	cancel     context.CancelFunc
	err        error
}

func (s *session) stopResolving() {
	s.cancel()
	s.pending = make(map[string]context.CancelFunc)
}

// restartResolving cancels outstanding resolutions but lets devices found later in the session
// resolve under a fresh context.
func (s *session) restartResolving(parent context.Context) {
	s.stopResolving()
	s.ctx, s.cancel = context.WithCancel(parent)
}

type Option func(*Tracker)

// WithNameInterval sets how often a pending name is polled.
func WithNameInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		if interval > 0 {
			t.resolver.Interval = interval
		}
	}
}

// WithNameTimeout sets how long a pending name is polled before the fallback name is used.
func WithNameTimeout(timeout time.Duration) Option {
	return func(t *Tracker) {
		if timeout > 0 {
			t.resolver.Timeout = timeout
		}
	}
}

// WithNameCache makes the Tracker record resolved names in c and use them for devices that are
// rediscovered without a name.
func WithNameCache(c *cache.NameCache) Option {
	return func(t *Tracker) {
		t.names = c
	}
}

// New creates a Tracker and subscribes it to adapter events. Call Close to unsubscribe and stop
// any outstanding name resolution.
func New(adapter platform.Adapter, names platform.NameAccessor, perms platform.Permissions, options ...Option) (*Tracker, error) {
	baseCtx, cancelAll := context.WithCancel(context.Background())
	t := &Tracker{
		adapter:   adapter,
		perms:     perms,
		resolver:  NewResolver(names),
		ops:       make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		baseCtx:   baseCtx,
		cancelAll: cancelAll,
		watchers:  make(map[int]chan Snapshot),
	}
	for _, option := range options {
		option(t)
	}
	t.session = t.newSession(0)

	sub, err := adapter.Subscribe(t.HandleEvent)
	if err != nil {
		cancelAll()
		return nil, fmt.Errorf("discovery: failed to subscribe to adapter events: %w", err)
	}
	t.sub = sub
	go t.loop()
	return t, nil
}

func (t *Tracker) newSession(generation uint64) *session {
	ctx, cancel := context.WithCancel(t.baseCtx)
	return &session{
		generation: generation,
		state:      StateIdle,
		index:      make(map[string]int),
		pending:    make(map[string]context.CancelFunc),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (t *Tracker) loop() {
	defer close(t.done)
	for {
		select {
		case op := <-t.ops:
			op()
		case <-t.quit:
			for id, ch := range t.watchers {
				close(ch)
				delete(t.watchers, id)
			}
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for it to return.
func (t *Tracker) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case t.ops <- func() { fn(); close(finished) }:
	case <-t.quit:
		return ErrClosed
	}
	<-finished
	return nil
}

// Close unsubscribes from the adapter, cancels outstanding name resolution and waits for it to
// stop. Watch channels are closed. Close does not close the adapter.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		t.sub.Unsubscribe()
		t.cancelAll()
		close(t.quit)
		<-t.done
		t.resolvers.Wait()
	})
}

// StartScan begins a new scan session: the device list is replaced by the adapter's bonded
// devices and a new discovery pass is requested. StartScan returns as soon as discovery has been
// requested; results arrive through adapter events.
//
// If scanning is not permitted, StartScan returns platform.ErrPermissionDenied and leaves the
// current session untouched.
func (t *Tracker) StartScan(ctx context.Context) error {
	granted, err := t.perms.Granted(ctx)
	if err != nil {
		return fmt.Errorf("discovery: failed to check permissions: %w", err)
	}
	if !granted {
		log.Warning("Bluetooth scan not allowed")
		return platform.ErrPermissionDenied
	}

	bonded, err := t.adapter.BondedDevices(ctx)
	if err != nil {
		return fmt.Errorf("discovery: failed to list bonded devices: %w", err)
	}

	if err := t.do(func() { t.beginSession(bonded) }); err != nil {
		return err
	}

	if err := t.adapter.CancelDiscovery(ctx); err != nil {
		log.Warning("Failed to cancel previous discovery: %s", err)
	}
	if err := t.adapter.StartDiscovery(ctx); err != nil {
		err = fmt.Errorf("discovery: failed to start discovery: %w", err)
		t.do(func() {
			t.session.err = err
			t.notify()
		})
		return err
	}
	return nil
}

func (t *Tracker) beginSession(bonded []platform.DeviceInfo) {
	previous := t.session
	previous.stopResolving()
	t.session = t.newSession(previous.generation + 1)
	log.Info("Starting scan session %d with %d bonded devices", t.session.generation, len(bonded))
	for _, info := range bonded {
		t.addDevice(info)
	}
	t.notify()
}

// HandleEvent applies a platform event to the current session. It is registered with the adapter
// by New and is exported for frontends that relay events from elsewhere.
func (t *Tracker) HandleEvent(e platform.Event) {
	log.Debug("Platform event: %s", e)
	err := t.do(func() {
		switch e.Kind {
		case platform.EventDiscoveryStarted:
			t.session.state = StateScanning
		case platform.EventDeviceFound:
			t.deviceFound(e.Device)
		case platform.EventDiscoveryFinished:
			t.session.state = StateFinished
		case platform.EventAdapterUnavailable:
			t.interrupt(platform.ErrAdapterUnavailable, e.Err)
		case platform.EventPermissionRevoked:
			t.interrupt(platform.ErrPermissionRevoked, e.Err)
		default:
			return
		}
		t.notify()
	})
	if err != nil {
		log.Debug("Dropped %s: %s", e, err)
	}
}

func (t *Tracker) interrupt(sentinel, detail error) {
	s := t.session
	s.restartResolving(t.baseCtx)
	for i := range s.devices {
		if s.devices[i].NameResolutionPending {
			s.devices[i].DisplayName = FallbackName
			s.devices[i].NameResolutionPending = false
		}
	}
	s.state = StateIdle
	if detail != nil {
		s.err = fmt.Errorf("%w: %s", sentinel, detail)
	} else {
		s.err = sentinel
	}
	log.Warning("Scan interrupted: %s", s.err)
}

func (t *Tracker) deviceFound(info platform.DeviceInfo) {
	s := t.session
	i, ok := s.index[info.Address]
	if !ok {
		t.addDevice(info)
		return
	}
	// Repeat sightings update the known record in place.
	record := &s.devices[i]
	if info.Name == "" || (info.Name == record.DisplayName && !record.NameResolutionPending) {
		return
	}
	record.DisplayName = info.Name
	if record.NameResolutionPending {
		record.NameResolutionPending = false
		if cancel, running := s.pending[info.Address]; running {
			cancel()
			delete(s.pending, info.Address)
		}
	}
	t.remember(info.Address, info.Name)
}

func (t *Tracker) addDevice(info platform.DeviceInfo) {
	s := t.session
	if info.Name == "" && t.names != nil {
		if name, ok := t.names.Lookup(info.Address); ok {
			info.Name = name
		}
	}
	record := newRecord(info)
	s.index[record.Address] = len(s.devices)
	s.devices = append(s.devices, record)
	if record.NameResolutionPending {
		t.resolve(s, record.Address)
	} else {
		t.remember(record.Address, record.DisplayName)
	}
}

func (t *Tracker) remember(address, name string) {
	if t.names != nil {
		t.names.Update(address, name)
	}
}

// resolve starts a name resolution for address unless one is already running in s.
func (t *Tracker) resolve(s *session, address string) {
	if _, running := s.pending[address]; running {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.pending[address] = cancel
	generation := s.generation

	t.resolvers.Add(1)
	go func() {
		defer t.resolvers.Done()
		defer cancel()
		// A canceled resolution still reports back. finishResolution ignores it unless the
		// record is still pending in the current session, which then gets the fallback name.
		name, err := t.resolver.Resolve(ctx, address)
		switch {
		case errors.Is(err, ErrNameTimeout):
			log.Debug("No name for %s after %s", address, t.resolver.Timeout)
		case err != nil:
			log.Debug("Stopped resolving %s: %s", address, err)
		}
		select {
		case t.ops <- func() { t.finishResolution(generation, address, name) }:
		case <-t.quit:
		}
	}()
}

func (t *Tracker) finishResolution(generation uint64, address, name string) {
	s := t.session
	if s.generation != generation {
		return
	}
	i, ok := s.index[address]
	if !ok || !s.devices[i].NameResolutionPending {
		return
	}
	delete(s.pending, address)
	if name == "" {
		name = FallbackName
	} else {
		t.remember(address, name)
	}
	s.devices[i] = DeviceRecord{Address: address, DisplayName: name}
	t.notify()
}

func (t *Tracker) snapshot() Snapshot {
	s := t.session
	devices := make([]DeviceRecord, len(s.devices))
	copy(devices, s.devices)
	return Snapshot{
		Generation: s.generation,
		State:      s.state,
		Devices:    devices,
		Err:        s.err,
	}
}

func (t *Tracker) notify() {
	if len(t.watchers) == 0 {
		return
	}
	snap := t.snapshot()
	for _, ch := range t.watchers {
		// Drop a snapshot the watcher has not consumed yet; only the latest one matters.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Snapshot returns the current session.
func (t *Tracker) Snapshot() Snapshot {
	var snap Snapshot
	if err := t.do(func() { snap = t.snapshot() }); err != nil {
		return Snapshot{Err: err}
	}
	return snap
}

// Devices returns a copy of the discovered-device list in discovery order.
func (t *Tracker) Devices() []DeviceRecord {
	return t.Snapshot().Devices
}

func (t *Tracker) State() State {
	return t.Snapshot().State
}

// Watch returns a channel that receives a Snapshot after every change to the session, starting
// with the current one. Slow readers only see the most recent snapshot. The channel is closed
// when stop is called or the Tracker is closed.
func (t *Tracker) Watch() (updates <-chan Snapshot, stop func()) {
	ch := make(chan Snapshot, 1)
	var id int
	if err := t.do(func() {
		id = t.nextID
		t.nextID++
		t.watchers[id] = ch
		ch <- t.snapshot()
	}); err != nil {
		close(ch)
		return ch, func() {}
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.do(func() {
				if _, ok := t.watchers[id]; ok {
					close(ch)
					delete(t.watchers, id)
				}
			})
		})
	}
}
