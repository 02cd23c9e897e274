package goble

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"

	"github.com/spacecrew/btscan/pkg/platform"
)

const bleTimeout = 20 * time.Second

var scanParams = cmd.LESetScanParameters{
	LEScanType:           1,    // Active scanning, so scan responses carry names
	LEScanInterval:       0x10, // 10ms
	LEScanWindow:         0x10, // 10ms
	OwnAddressType:       0,    // Static
	ScanningFilterPolicy: 0,    // Accept all
}

// deviceID converts "hci1" (or "1") to the HCI device index.
func deviceID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "hci"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("goble: %w: %q", platform.ErrAdapterInvalidID, id)
	}
	return n, nil
}

func newDevice(id string) (ble.Device, error) {
	options := []ble.Option{
		ble.OptListenerTimeout(bleTimeout),
		ble.OptDialerTimeout(bleTimeout),
		ble.OptScanParams(scanParams),
	}
	if id != "" {
		n, err := deviceID(id)
		if err != nil {
			return nil, err
		}
		options = append(options, ble.OptDeviceID(n))
	}
	device, err := linux.NewDevice(options...)
	if err != nil {
		return nil, fmt.Errorf("goble: %w: %s", platform.ErrAdapterUnavailable, err)
	}
	return device, nil
}
