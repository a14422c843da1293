// Package influxdb records speaker volume and command telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with the non-blocking write API, so a slow
// or absent time-series database never delays a volume change.
//
// Measurements:
//   - speaker_volume: volume after every applied change (tags host, name, group)
//   - speaker_command: one point per device per action (tags action, host, status)
//   - group_volume: the rounded group average (tag site)
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSpeakerVolume("192.168.1.195", "Kitchen", "Kitchen", 35)
package influxdb
