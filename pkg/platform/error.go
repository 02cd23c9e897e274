package platform

import (
	"errors"
)

// Error exposes methods useful for categorizing platform errors.
type Error interface {
	error

	// Temporary returns true if the Error might be the result of a transient condition, such as
	// the Bluetooth service restarting, that can clear without user action.
	Temporary() bool
}

var (
	// ErrPermissionDenied indicates the process may not scan for devices. The user has to grant
	// access before scanning.
	ErrPermissionDenied = NewError("bluetooth scan permission not granted", false)
	// ErrPermissionRevoked indicates access was withdrawn during a scan.
	ErrPermissionRevoked = NewError("bluetooth permission revoked", false)
	// ErrAdapterUnavailable indicates no adapter could be reached, or it disappeared mid-scan.
	ErrAdapterUnavailable = NewError("bluetooth adapter unavailable", true)
	// ErrAdapterDisabled indicates the adapter exists but is powered off.
	ErrAdapterDisabled = NewError("bluetooth adapter is turned off", false)
	// ErrAdapterInvalidID indicates the requested adapter does not exist or cannot be selected
	// on this OS.
	ErrAdapterInvalidID = NewError("the bluetooth adapter ID is invalid", false)
	// ErrNotSupported indicates a backend cannot run on this OS.
	ErrNotSupported = NewError("bluetooth backend not supported on this platform", false)
)

type PlatformError struct {
	Err               error
	PossibleTemporary bool
}

func NewError(message string, temporary bool) error {
	return &PlatformError{Err: errors.New(message), PossibleTemporary: temporary}
}

func (e *PlatformError) Error() string {
	return e.Err.Error()
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func (e *PlatformError) Temporary() bool {
	return e.PossibleTemporary
}

// Temporary returns true if err wraps an Error that indicates a possibly transient condition.
func Temporary(err error) bool {
	var platformErr Error
	if errors.As(err, &platformErr) {
		return platformErr.Temporary()
	}
	return false
}
