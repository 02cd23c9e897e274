package discovery

import (
	"fmt"

	"github.com/spacecrew/btscan/pkg/platform"
)

const (
	// PlaceholderName is displayed while a device's name is being resolved.
	PlaceholderName = "retrieving name..."
	// FallbackName is displayed when no name could be resolved in time.
	FallbackName = "[no name available]"
)

// DeviceRecord is one entry of the discovered-device list.
type DeviceRecord struct {
	Address               string
	DisplayName           string
	NameResolutionPending bool
}

func newRecord(info platform.DeviceInfo) DeviceRecord {
	if info.Name != "" {
		return DeviceRecord{Address: info.Address, DisplayName: info.Name}
	}
	return DeviceRecord{Address: info.Address, DisplayName: PlaceholderName, NameResolutionPending: true}
}

func (r DeviceRecord) String() string {
	return fmt.Sprintf("%s (%s)", r.DisplayName, r.Address)
}

type State int

const (
	StateIdle State = iota
	StateScanning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Snapshot is an immutable view of a scan session.
type Snapshot struct {
	// Generation increases by one every time a scan is started.
	Generation uint64
	State      State
	Devices    []DeviceRecord
	// Err is set when the platform reported a condition that stopped the scan, such as the
	// adapter disappearing.
	Err error
}

// Pending returns the number of devices whose name is still being resolved.
func (s Snapshot) Pending() int {
	n := 0
	for _, d := range s.Devices {
		if d.NameResolutionPending {
			n++
		}
	}
	return n
}

// Settled returns true once discovery has finished and every name has been resolved.
func (s Snapshot) Settled() bool {
	return s.State == StateFinished && s.Pending() == 0
}
