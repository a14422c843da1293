package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // 404
//	}
var (
	// ErrDeviceNotFound is returned when no registered device has the UUID.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrNoSpeaker is returned when a Device carries no transport handle.
	ErrNoSpeaker = errors.New("device: no speaker handle")

	// ErrVolumeRead is returned when a live volume read fails.
	ErrVolumeRead = errors.New("device: volume read failed")
)
