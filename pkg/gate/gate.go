// Package gate decides whether a scan may begin: the process needs Bluetooth permission and the
// adapter has to be powered on.
package gate

import (
	"context"
	"fmt"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

type Status int

const (
	StatusNeedsPermission Status = iota
	StatusAdapterOff
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusNeedsPermission:
		return "Bluetooth is needed"
	case StatusAdapterOff:
		return "Bluetooth is turned off"
	case StatusReady:
		return "ready"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Err returns the platform error corresponding to s, or nil if s is StatusReady.
func (s Status) Err() error {
	switch s {
	case StatusNeedsPermission:
		return platform.ErrPermissionDenied
	case StatusAdapterOff:
		return platform.ErrAdapterDisabled
	}
	return nil
}

// Check reports the first unmet precondition for scanning. Permission is checked before the
// adapter state, since querying the adapter may itself require permission.
func Check(ctx context.Context, perms platform.Permissions, adapter platform.Adapter) (Status, error) {
	granted, err := perms.Granted(ctx)
	if err != nil {
		return StatusNeedsPermission, err
	}
	if !granted {
		return StatusNeedsPermission, nil
	}
	enabled, err := adapter.Enabled(ctx)
	if err != nil {
		return StatusAdapterOff, err
	}
	if !enabled {
		return StatusAdapterOff, nil
	}
	return StatusReady, nil
}

// Prepare attempts to reach StatusReady: it requests permission if needed and, if the adapter is
// off and confirm returns true, asks the platform to power it on. A nil confirm never enables the
// adapter.
func Prepare(ctx context.Context, perms platform.Permissions, adapter platform.Adapter, confirm func() bool) (Status, error) {
	status, err := Check(ctx, perms, adapter)
	if err != nil || status == StatusReady {
		return status, err
	}

	if status == StatusNeedsPermission {
		log.Info("Requesting Bluetooth permission")
		granted, err := perms.Request(ctx)
		if err != nil {
			return status, fmt.Errorf("gate: permission request failed: %w", err)
		}
		if !granted {
			return status, nil
		}
		if status, err = Check(ctx, perms, adapter); err != nil || status == StatusReady {
			return status, err
		}
	}

	if confirm == nil || !confirm() {
		return status, nil
	}
	log.Info("Turning Bluetooth on")
	if err := adapter.RequestEnable(ctx); err != nil {
		return status, fmt.Errorf("gate: failed to enable adapter: %w", err)
	}
	return Check(ctx, perms, adapter)
}
