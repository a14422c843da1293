package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSpeakerVolume  = "speaker_volume"
	MeasurementSpeakerCommand = "speaker_command"
	MeasurementGroupVolume    = "group_volume"
)

// WriteSpeakerVolume records a speaker's volume after a change.
func (c *Client) WriteSpeakerVolume(host, name, group string, volume int) {
	c.write(write.NewPoint(MeasurementSpeakerVolume,
		map[string]string{"host": host, "name": name, "group": group},
		map[string]any{"volume": volume},
		time.Now()))
}

// WriteSpeakerCommand records one device outcome of an action.
// previous and volume are omitted when negative (not applicable).
func (c *Client) WriteSpeakerCommand(action, host, status string, previous, volume int, at time.Time) {
	fields := map[string]any{"count": 1}
	if previous >= 0 {
		fields["previous"] = previous
	}
	if volume >= 0 {
		fields["volume"] = volume
	}
	c.write(write.NewPoint(MeasurementSpeakerCommand,
		map[string]string{"action": action, "host": host, "status": status},
		fields, at))
}

// WriteGroupVolume records the rounded average over all speakers.
func (c *Client) WriteGroupVolume(site string, volume, devices int) {
	c.write(write.NewPoint(MeasurementGroupVolume,
		map[string]string{"site": site},
		map[string]any{"volume": volume, "devices": devices},
		time.Now()))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}
