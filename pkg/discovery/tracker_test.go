package discovery_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/spacecrew/btscan/mocks"
	"github.com/spacecrew/btscan/pkg/cache"
	"github.com/spacecrew/btscan/pkg/discovery"
	"github.com/spacecrew/btscan/pkg/platform"
)

const (
	headset  = "00:11:22:33:44:01"
	keyboard = "00:11:22:33:44:02"
	anon     = "00:11:22:33:44:03"
	speaker  = "00:11:22:33:44:04"
)

func found(address, name string) platform.Event {
	return platform.Event{Kind: platform.EventDeviceFound, Device: platform.DeviceInfo{Address: address, Name: name}}
}

var _ = Describe("Tracker", func() {
	var (
		ctx      context.Context
		ctrl     *gomock.Controller
		adapter  *mocks.Adapter
		names    *mocks.NameAccessor
		perms    *mocks.Permissions
		sub      *mocks.Subscription
		handler  func(platform.Event)
		tracker  *discovery.Tracker
		options  []discovery.Option
		interval = 10 * time.Millisecond
		timeout  = 300 * time.Millisecond
	)

	startScan := func(bonded ...platform.DeviceInfo) {
		perms.EXPECT().Granted(gomock.Any()).Return(true, nil)
		adapter.EXPECT().BondedDevices(gomock.Any()).Return(bonded, nil)
		gomock.InOrder(
			adapter.EXPECT().CancelDiscovery(gomock.Any()).Return(nil),
			adapter.EXPECT().StartDiscovery(gomock.Any()).Return(nil),
		)
		Expect(tracker.StartScan(ctx)).To(Succeed())
	}

	neverNamed := func(address string) {
		names.EXPECT().DeviceName(gomock.Any(), address).Return("", nil).AnyTimes()
	}

	BeforeEach(func() {
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		adapter = mocks.NewAdapter(ctrl)
		names = mocks.NewNameAccessor(ctrl)
		perms = mocks.NewPermissions(ctrl)
		sub = mocks.NewSubscription(ctrl)
		options = []discovery.Option{
			discovery.WithNameInterval(interval),
			discovery.WithNameTimeout(timeout),
		}
	})

	JustBeforeEach(func() {
		adapter.EXPECT().Subscribe(gomock.Any()).DoAndReturn(func(h func(platform.Event)) (platform.Subscription, error) {
			handler = h
			return sub, nil
		})
		sub.EXPECT().Unsubscribe()

		var err error
		tracker, err = discovery.New(adapter, names, perms, options...)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			tracker.Close()
		})
	})

	It("starts idle with no devices", func() {
		Expect(tracker.State()).To(Equal(discovery.StateIdle))
		Expect(tracker.Devices()).To(BeEmpty())
	})

	Describe("StartScan", func() {
		It("lists bonded devices immediately and resolves only unnamed ones", func() {
			neverNamed(anon)
			startScan(
				platform.DeviceInfo{Address: headset, Name: "Headset"},
				platform.DeviceInfo{Address: keyboard, Name: "Keyboard"},
				platform.DeviceInfo{Address: anon},
			)

			snap := tracker.Snapshot()
			Expect(snap.Devices).To(HaveLen(3))
			Expect(snap.Pending()).To(Equal(1))
			Expect(snap.Devices[0]).To(Equal(discovery.DeviceRecord{Address: headset, DisplayName: "Headset"}))
			Expect(snap.Devices[2]).To(Equal(discovery.DeviceRecord{Address: anon, DisplayName: discovery.PlaceholderName, NameResolutionPending: true}))
			Expect(snap.Generation).To(Equal(uint64(1)))
		})

		It("is refused without permission and leaves the session untouched", func() {
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(found(headset, "Headset"))
			before := tracker.Snapshot()

			perms.EXPECT().Granted(gomock.Any()).Return(false, nil)
			Expect(tracker.StartScan(ctx)).To(MatchError(platform.ErrPermissionDenied))
			Expect(tracker.Snapshot()).To(Equal(before))
		})

		It("clears the previous session", func() {
			handler(found(headset, "Headset"))
			handler(platform.Event{Kind: platform.EventDiscoveryFinished})
			startScan()
			Expect(tracker.Devices()).To(BeEmpty())
			Expect(tracker.State()).To(Equal(discovery.StateIdle))
		})

		It("surfaces a failure to start discovery", func() {
			startErr := errors.New("org.bluez.Error.NotReady")
			perms.EXPECT().Granted(gomock.Any()).Return(true, nil)
			adapter.EXPECT().BondedDevices(gomock.Any()).Return(nil, nil)
			adapter.EXPECT().CancelDiscovery(gomock.Any()).Return(nil)
			adapter.EXPECT().StartDiscovery(gomock.Any()).Return(startErr)

			err := tracker.StartScan(ctx)
			Expect(err).To(MatchError(startErr))
			Expect(tracker.Snapshot().Err).To(MatchError(startErr))
		})

		It("continues when canceling the previous discovery fails", func() {
			perms.EXPECT().Granted(gomock.Any()).Return(true, nil)
			adapter.EXPECT().BondedDevices(gomock.Any()).Return(nil, nil)
			adapter.EXPECT().CancelDiscovery(gomock.Any()).Return(errors.New("not discovering"))
			adapter.EXPECT().StartDiscovery(gomock.Any()).Return(nil)
			Expect(tracker.StartScan(ctx)).To(Succeed())
		})

		It("cancels name resolution belonging to the previous session", func() {
			neverNamed(anon)
			startScan(platform.DeviceInfo{Address: anon})
			startScan()
			handler(found(speaker, "Speaker"))

			Consistently(tracker.Devices, 2*timeout, interval).Should(Equal([]discovery.DeviceRecord{
				{Address: speaker, DisplayName: "Speaker"},
			}))
		})
	})

	Describe("events", func() {
		It("enters Scanning when discovery starts", func() {
			handler(found(headset, "Headset"))
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			Expect(tracker.State()).To(Equal(discovery.StateScanning))
			Expect(tracker.Devices()).To(HaveLen(1))
		})

		It("appends newly found devices in arrival order", func() {
			handler(found(headset, "Headset"))
			handler(found(keyboard, "Keyboard"))
			Expect(tracker.Devices()).To(Equal([]discovery.DeviceRecord{
				{Address: headset, DisplayName: "Headset"},
				{Address: keyboard, DisplayName: "Keyboard"},
			}))
		})

		It("updates a repeated address in place", func() {
			neverNamed(anon)
			handler(found(headset, "Headset"))
			handler(found(anon, ""))
			handler(found(keyboard, "Keyboard"))
			handler(found(anon, "Watch"))
			handler(found(headset, ""))

			Expect(tracker.Devices()).To(Equal([]discovery.DeviceRecord{
				{Address: headset, DisplayName: "Headset"},
				{Address: anon, DisplayName: "Watch"},
				{Address: keyboard, DisplayName: "Keyboard"},
			}))
		})

		It("enters Finished without touching the device list", func() {
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(found(headset, "Headset"))
			handler(found(keyboard, "Keyboard"))
			handler(platform.Event{Kind: platform.EventDiscoveryFinished})
			Expect(tracker.State()).To(Equal(discovery.StateFinished))
			Expect(tracker.Devices()).To(HaveLen(2))
		})

		It("reports a lost adapter instead of stalling", func() {
			neverNamed(anon)
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(found(anon, ""))
			handler(platform.Event{Kind: platform.EventAdapterUnavailable, Err: errors.New("org.bluez vanished")})

			snap := tracker.Snapshot()
			Expect(snap.State).To(Equal(discovery.StateIdle))
			Expect(snap.Err).To(MatchError(platform.ErrAdapterUnavailable))
			Expect(snap.Devices).To(Equal([]discovery.DeviceRecord{{Address: anon, DisplayName: discovery.FallbackName}}))
		})

		It("reports revoked permissions", func() {
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(platform.Event{Kind: platform.EventPermissionRevoked})
			Expect(tracker.Snapshot().Err).To(MatchError(platform.ErrPermissionRevoked))
		})

		It("resolves names of devices found after the adapter was lost", func() {
			names.EXPECT().DeviceName(gomock.Any(), anon).Return("Phone", nil).AnyTimes()
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(platform.Event{Kind: platform.EventAdapterUnavailable})
			handler(found(anon, ""))

			Eventually(tracker.Devices, 3*timeout, interval).Should(Equal([]discovery.DeviceRecord{
				{Address: anon, DisplayName: "Phone"},
			}))
		})

		It("finalizes devices found after permissions were revoked", func() {
			neverNamed(anon)
			handler(platform.Event{Kind: platform.EventDiscoveryStarted})
			handler(platform.Event{Kind: platform.EventPermissionRevoked})
			handler(found(anon, ""))

			Eventually(tracker.Devices, 3*timeout, interval).Should(Equal([]discovery.DeviceRecord{
				{Address: anon, DisplayName: discovery.FallbackName},
			}))
			Expect(tracker.Snapshot().Err).To(MatchError(platform.ErrPermissionRevoked))
		})
	})

	Describe("name resolution", func() {
		It("uses the name once the platform learns it", func() {
			gomock.InOrder(
				names.EXPECT().DeviceName(gomock.Any(), anon).Return("", nil).Times(2),
				names.EXPECT().DeviceName(gomock.Any(), anon).Return("Fitness Band", nil),
			)
			handler(found(anon, ""))
			Eventually(tracker.Devices).Should(Equal([]discovery.DeviceRecord{
				{Address: anon, DisplayName: "Fitness Band"},
			}))
		})

		It("falls back when the name never arrives", func() {
			neverNamed(anon)
			handler(found(anon, ""))
			Consistently(func() bool { return tracker.Devices()[0].NameResolutionPending }, timeout/2, interval).Should(BeTrue())
			Eventually(tracker.Devices, 3*timeout, interval).Should(Equal([]discovery.DeviceRecord{
				{Address: anon, DisplayName: discovery.FallbackName},
			}))
		})

		It("keeps resolved devices at their position", func() {
			gomock.InOrder(
				names.EXPECT().DeviceName(gomock.Any(), anon).Return("", nil),
				names.EXPECT().DeviceName(gomock.Any(), anon).Return("Tracker Tag", nil),
			)
			handler(found(headset, "Headset"))
			handler(found(anon, ""))
			handler(found(keyboard, "Keyboard"))
			Eventually(func() string { return tracker.Devices()[1].DisplayName }).Should(Equal("Tracker Tag"))
			Expect(tracker.Devices()[0].Address).To(Equal(headset))
			Expect(tracker.Devices()[2].Address).To(Equal(keyboard))
		})
	})

	Describe("Watch", func() {
		It("delivers the current session and subsequent changes", func() {
			updates, stop := tracker.Watch()
			defer stop()

			var snap discovery.Snapshot
			Eventually(updates).Should(Receive(&snap))
			Expect(snap.Devices).To(BeEmpty())

			handler(found(headset, "Headset"))
			Eventually(updates).Should(Receive(&snap))
			Expect(snap.Devices).To(HaveLen(1))
		})

		It("coalesces updates for slow readers", func() {
			updates, stop := tracker.Watch()
			handler(found(headset, "Headset"))
			handler(found(keyboard, "Keyboard"))

			var snap discovery.Snapshot
			Eventually(updates).Should(Receive(&snap))
			Expect(snap.Devices).To(HaveLen(2))
			stop()
			Eventually(updates).Should(BeClosed())
		})
	})

	Context("with a name cache", func() {
		var names2 *cache.NameCache

		BeforeEach(func() {
			names2 = cache.New(0)
			names2.Update(anon, "Remembered")
			options = append(options, discovery.WithNameCache(names2))
		})

		It("uses remembered names and records new ones", func() {
			handler(found(anon, ""))
			handler(found(headset, "Headset"))
			Expect(tracker.Devices()).To(Equal([]discovery.DeviceRecord{
				{Address: anon, DisplayName: "Remembered"},
				{Address: headset, DisplayName: "Headset"},
			}))
			name, ok := names2.Lookup(headset)
			Expect(ok).To(BeTrue())
			Expect(name).To(Equal("Headset"))
		})
	})

	Describe("Close", func() {
		It("unsubscribes and rejects further use", func() {
			neverNamed(anon)
			handler(found(anon, ""))
			tracker.Close()
			tracker.Close()

			handler(found(headset, "Headset"))
			Expect(tracker.Snapshot().Err).To(MatchError(discovery.ErrClosed))
		})
	})
})
