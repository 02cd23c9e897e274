package discovery_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/spacecrew/btscan/mocks"
	"github.com/spacecrew/btscan/pkg/discovery"
)

var _ = Describe("Resolver", func() {
	const address = "AA:BB:CC:DD:EE:01"

	var (
		ctrl     *gomock.Controller
		names    *mocks.NameAccessor
		resolver *discovery.Resolver
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		names = mocks.NewNameAccessor(ctrl)
		resolver = discovery.NewResolver(names)
		resolver.Interval = 10 * time.Millisecond
		resolver.Timeout = 100 * time.Millisecond
	})

	It("defaults to polling every second for ten seconds", func() {
		r := discovery.NewResolver(names)
		Expect(r.Interval).To(Equal(time.Second))
		Expect(r.Timeout).To(Equal(10 * time.Second))
	})

	It("uses the defaults when the interval or timeout is not positive", func() {
		names.EXPECT().DeviceName(gomock.Any(), address).Return("Watch", nil)
		resolver.Interval = 0
		resolver.Timeout = -time.Second

		start := time.Now()
		name, err := resolver.Resolve(context.Background(), address)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Watch"))
		Expect(time.Since(start)).To(BeNumerically(">=", discovery.DefaultNameInterval))
	})

	It("returns the name once the platform reports it", func() {
		gomock.InOrder(
			names.EXPECT().DeviceName(gomock.Any(), address).Return("", nil).Times(2),
			names.EXPECT().DeviceName(gomock.Any(), address).Return("Speaker", nil),
		)
		name, err := resolver.Resolve(context.Background(), address)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Speaker"))
	})

	It("keeps polling after accessor errors", func() {
		gomock.InOrder(
			names.EXPECT().DeviceName(gomock.Any(), address).Return("", errors.New("unknown object")),
			names.EXPECT().DeviceName(gomock.Any(), address).Return("Keyboard", nil),
		)
		name, err := resolver.Resolve(context.Background(), address)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Keyboard"))
	})

	It("gives up after the timeout", func() {
		names.EXPECT().DeviceName(gomock.Any(), address).Return("", nil).AnyTimes()
		start := time.Now()
		_, err := resolver.Resolve(context.Background(), address)
		Expect(err).To(MatchError(discovery.ErrNameTimeout))
		Expect(time.Since(start)).To(BeNumerically(">=", resolver.Timeout))
	})

	It("stops when its context is canceled", func() {
		names.EXPECT().DeviceName(gomock.Any(), address).Return("", nil).AnyTimes()
		resolver.Timeout = time.Minute
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(30*time.Millisecond, cancel)
		_, err := resolver.Resolve(ctx, address)
		Expect(err).To(MatchError(context.Canceled))
	})
})
