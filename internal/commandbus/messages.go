package commandbus

import "time"

// commandMessage is the body of a command topic.
type commandMessage struct {
	ID    string `json:"id,omitempty"`
	Host  string `json:"host,omitempty"`
	Value int    `json:"value,omitempty"`
}

// StateMessage is published retained per speaker after an applied action.
type StateMessage struct {
	Host      string    `json:"host"`
	UUID      string    `json:"uuid,omitempty"`
	Name      string    `json:"name,omitempty"`
	Action    string    `json:"action"`
	Volume    *int      `json:"volume,omitempty"`
	Previous  *int      `json:"previous,omitempty"`
	Source    string    `json:"source,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health status values.
const (
	HealthOnline  = "online"
	HealthOffline = "offline"
)

// HealthMessage is published retained on the audio health topic.
type HealthMessage struct {
	Status        string    `json:"status"`
	Version       string    `json:"version,omitempty"`
	Devices       int       `json:"devices"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
