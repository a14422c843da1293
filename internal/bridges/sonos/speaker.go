package sonos

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/av1"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// descriptionPath is where every player serves its root device description.
const descriptionPath = "/xml/device_description.xml"

// Speaker is a device.Speaker backed by one player's UPnP services.
type Speaker struct {
	host   string
	client *Client

	mu   sync.Mutex
	uuid string
}

var _ device.Speaker = (*Speaker)(nil)

// Host implements device.Speaker.
func (s *Speaker) Host() string { return s.host }

// Volume reads the master volume via RenderingControl.GetVolume.
func (s *Speaker) Volume(ctx context.Context) (int, error) {
	rc, err := s.client.renderingControl(s.host)
	if err != nil {
		return 0, err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	v, err := rc.GetVolumeCtx(ctx, instanceID, masterChannel)
	if err != nil {
		return 0, callError(s.host, "GetVolume", err)
	}
	return int(v), nil
}

// SetVolume sets the master volume via RenderingControl.SetVolume.
// Callers clamp volume to [0, 100] first.
func (s *Speaker) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	rc, err := s.client.renderingControl(s.host)
	if err != nil {
		return err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	if err := rc.SetVolumeCtx(ctx, instanceID, masterChannel, uint16(volume)); err != nil {
		return callError(s.host, "SetVolume", err)
	}
	return nil
}

// Play implements device.Speaker.
func (s *Speaker) Play(ctx context.Context) error {
	return s.transport(ctx, "Play", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.PlayCtx(ctx, instanceID, playSpeed)
	})
}

// Pause implements device.Speaker.
func (s *Speaker) Pause(ctx context.Context) error {
	return s.transport(ctx, "Pause", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.PauseCtx(ctx, instanceID)
	})
}

// Stop implements device.Speaker.
func (s *Speaker) Stop(ctx context.Context) error {
	return s.transport(ctx, "Stop", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.StopCtx(ctx, instanceID)
	})
}

// Next implements device.Speaker.
func (s *Speaker) Next(ctx context.Context) error {
	return s.transport(ctx, "Next", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.NextCtx(ctx, instanceID)
	})
}

// Previous implements device.Speaker.
func (s *Speaker) Previous(ctx context.Context) error {
	return s.transport(ctx, "Previous", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.PreviousCtx(ctx, instanceID)
	})
}

// SwitchToAuxInput points the transport at the player's own S/PDIF input.
// Only home theater players have one; others answer with a fault.
func (s *Speaker) SwitchToAuxInput(ctx context.Context) error {
	uuid, err := s.UUID(ctx)
	if err != nil {
		return err
	}
	uri := "x-sonos-htastream:" + uuid + ":spdif"
	return s.transport(ctx, "SetAVTransportURI", func(ctx context.Context, t *av1.AVTransport1) error {
		return t.SetAVTransportURICtx(ctx, instanceID, uri, "")
	})
}

func (s *Speaker) transport(ctx context.Context, action string, call func(context.Context, *av1.AVTransport1) error) error {
	t, err := s.client.avTransport(s.host)
	if err != nil {
		return err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	if err := call(ctx, t); err != nil {
		return callError(s.host, action, err)
	}
	return nil
}

// UUID returns the player's RINCON id, fetching the device description
// on first use.
func (s *Speaker) UUID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uuid != "" {
		return s.uuid, nil
	}

	loc, err := s.client.endpoint(s.host, descriptionPath)
	if err != nil {
		return "", err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	root, err := goupnp.DeviceByURLCtx(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("%s description: %w", s.host, err)
	}
	udn := strings.TrimPrefix(strings.TrimSpace(root.Device.UDN), "uuid:")
	if udn == "" {
		return "", fmt.Errorf("%w: %s description has no UDN", ErrBadResponse, s.host)
	}
	s.uuid = udn
	return s.uuid, nil
}
