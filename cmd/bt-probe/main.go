// bt-probe opens a Bluetooth backend and prints the raw platform events of one discovery pass.
// Use it to check whether a backend works on a machine before looking at scan results.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/cli"
	"github.com/spacecrew/btscan/pkg/gate"
	"github.com/spacecrew/btscan/pkg/platform"
)

var testScan = flag.Bool("testScan", false, "Also run a discovery pass and print its events")

func main() {
	config := cli.NewConfig(cli.FlagBackend)
	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()
	log.SetLevel(log.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.AdapterID != "" {
		log.Info("Trying to use Bluetooth adapter: %s", config.AdapterID)
	} else {
		log.Info("Using default Bluetooth adapter")
	}
	p, err := config.Open(ctx)
	if err != nil {
		log.Error("Failed to initialize %s backend: %v", config.Backend, err)
		return
	}
	defer p.Close()
	log.Info("Bluetooth adapter initialized")

	status, err := gate.Check(ctx, p.Permissions, p.Adapter)
	if err != nil {
		log.Error("Failed to check adapter: %v", err)
		return
	}
	log.Info("Adapter status: %s", status)

	bonded, err := p.Adapter.BondedDevices(ctx)
	if err != nil {
		log.Error("Failed to list bonded devices: %v", err)
	}
	for _, device := range bonded {
		log.Info("Bonded: %s %q", device.Address, device.Name)
	}

	if !*testScan || status != gate.StatusReady {
		return
	}

	finished := make(chan struct{})
	sub, err := p.Adapter.Subscribe(func(e platform.Event) {
		if e.Err != nil {
			log.Info("Event: %s (%s)", e, e.Err)
		} else {
			log.Info("Event: %s", e)
		}
		switch e.Kind {
		case platform.EventDiscoveryFinished, platform.EventAdapterUnavailable, platform.EventPermissionRevoked:
			select {
			case <-finished:
			default:
				close(finished)
			}
		}
	})
	if err != nil {
		log.Error("Failed to subscribe to events: %v", err)
		return
	}
	defer sub.Unsubscribe()

	if err := p.Adapter.StartDiscovery(ctx); err != nil {
		log.Error("Discovery failed: %v", err)
		return
	}
	log.Info("Discovering until the pass ends or interrupted")

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	select {
	case <-signalChan:
		log.Info("Stopping discovery")
		if err := p.Adapter.CancelDiscovery(ctx); err != nil {
			log.Error("Failed to stop discovery: %v", err)
		}
	case <-finished:
	}
}
