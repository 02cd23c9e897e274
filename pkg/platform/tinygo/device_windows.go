package tinygo

import (
	"tinygo.org/x/bluetooth"

	"github.com/spacecrew/btscan/pkg/platform"
)

func IsAdapterError(_ error) bool {
	return false
}

func AdapterErrorHelpMessage(err error) string {
	return err.Error()
}

func newAdapter(id string) (*bluetooth.Adapter, error) {
	if id != "" {
		return nil, platform.ErrAdapterInvalidID
	}
	return bluetooth.DefaultAdapter, nil
}
