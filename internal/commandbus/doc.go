// Package commandbus exposes the controller on MQTT.
//
// Commands arrive on graylogic/audio/command/{action} with an optional JSON
// body:
//
//	{"host": "192.168.1.195", "value": 5, "id": "req-1"}
//
// An empty body or empty host targets every speaker. Every applied outcome,
// whatever its origin, is published retained to graylogic/audio/state/{host}
// and the bridge's own status to graylogic/audio/health.
package commandbus
