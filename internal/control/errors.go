package control

import "errors"

var (
	// ErrOutOfRange marks a computed volume outside [0, 100]. It is
	// reported per outcome and never fails the overall call.
	ErrOutOfRange = errors.New("control: volume out of range")

	// ErrTransport wraps every per-speaker transport failure.
	ErrTransport = errors.New("control: transport failure")

	// ErrNoSnapshot marks undo or unmute on a host with no recorded volume.
	ErrNoSnapshot = errors.New("control: no volume snapshot")

	// ErrNoDiscoverer is returned by Rediscover when no discoverer is set.
	ErrNoDiscoverer = errors.New("control: rediscovery not configured")
)

// ErrUnknownAction is returned by Execute for an action it cannot run.
var ErrUnknownAction = errors.New("control: unknown action")
