/*
Package discovery tracks a Bluetooth scan session: the scan state and the list of discovered
devices, including names that the platform only learns some time after a device is found.

A [Tracker] is created from a [platform.Adapter], a [platform.NameAccessor] and a
[platform.Permissions], usually obtained from a backend through [cli.Config.Open]:

	tracker, err := discovery.New(p.Adapter, p.Names, p.Permissions)
	if err != nil {
		panic(err)
	}
	defer tracker.Close()

	updates, stop := tracker.Watch()
	defer stop()
	if err := tracker.StartScan(ctx); err != nil {
		panic(err)
	}
	for snap := range updates {
		render(snap.Devices)
		if snap.Settled() {
			break
		}
	}

Devices found without a name are listed with [PlaceholderName] while a [Resolver] polls the
platform for it (every second, for up to ten seconds by default). Devices that stay anonymous
are given [FallbackName]. Starting a new scan cancels all name resolution of the previous one.

A device reported twice within one session keeps its position in the list; the second report
only updates its name.
*/
package discovery
