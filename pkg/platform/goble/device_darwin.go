package goble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

func newDevice(id string) (ble.Device, error) {
	if id != "" {
		log.Warning("Darwin does not support specifying a Bluetooth adapter ID")
		return nil, platform.ErrAdapterInvalidID
	}
	device, err := darwin.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("goble: %w: %s", platform.ErrAdapterUnavailable, err)
	}
	return device, nil
}
