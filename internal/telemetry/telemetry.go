// Package telemetry turns controller events into InfluxDB points.
package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Writer is the subset of the InfluxDB client the observer needs.
type Writer interface {
	WriteSpeakerVolume(host, name, group string, volume int)
	WriteSpeakerCommand(action, host, status string, previous, volume int, at time.Time)
	WriteGroupVolume(site string, volume, devices int)
}

// Observer records every outcome as a speaker_command point, applied
// volume changes as speaker_volume points, and ListDevices aggregates
// as group_volume points.
type Observer struct {
	w        Writer
	site     string
	registry *device.Registry
}

var (
	_ control.Observer            = (*Observer)(nil)
	_ control.GroupVolumeObserver = (*Observer)(nil)
)

// NewObserver creates an Observer. registry may be nil, in which case
// speaker_volume points carry no group tag.
func NewObserver(w Writer, site string, registry *device.Registry) *Observer {
	return &Observer{w: w, site: site, registry: registry}
}

// Observe implements control.Observer.
func (o *Observer) Observe(_ context.Context, ev control.Event) {
	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	for _, out := range ev.Outcomes {
		o.w.WriteSpeakerCommand(string(out.Action), out.Host, string(out.Status),
			out.PreviousOr(-1), out.VolumeOr(-1), at)

		if out.Status != control.StatusApplied || !out.Action.IsVolume() || out.Volume == nil {
			continue
		}
		o.w.WriteSpeakerVolume(out.Host, out.Name, o.groupOf(out.Host), *out.Volume)
	}
}

// ObserveGroupVolume implements control.GroupVolumeObserver.
func (o *Observer) ObserveGroupVolume(_ context.Context, volume, devices int) {
	o.w.WriteGroupVolume(o.site, volume, devices)
}

func (o *Observer) groupOf(host string) string {
	if o.registry == nil {
		return ""
	}
	if d, ok := o.registry.DeviceByHost(host); ok {
		return d.GroupName
	}
	return ""
}
