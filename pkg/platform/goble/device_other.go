//go:build !linux && !darwin

package goble

import (
	"github.com/go-ble/ble"

	"github.com/spacecrew/btscan/pkg/platform"
)

func newDevice(_ string) (ble.Device, error) {
	return nil, platform.ErrNotSupported
}
